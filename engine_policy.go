package tagweaver

import "github.com/rs/zerolog"

// RandomPolicy decides how often a random tag is drawn.
type RandomPolicy int

const (
	RandomPerCall   RandomPolicy = iota // one draw shared by every branch of a call
	RandomPerBranch                     // a fresh draw each time a branch reaches the tag
)

func (p RandomPolicy) String() string {
	if p == RandomPerBranch {
		return "per-branch"
	}
	return "per-call"
}

// ParseRandomPolicy accepts "per-call" and "per-branch"; "" is per-call.
func ParseRandomPolicy(s string) (RandomPolicy, bool) {
	switch s {
	case "", "per-call":
		return RandomPerCall, true
	case "per-branch":
		return RandomPerBranch, true
	}
	return RandomPerCall, false
}

// Engine enumerates and renders templates against a registry. It holds only
// read-only configuration and is safe for concurrent use.
type Engine struct {
	reg          *Registry
	random       RandomPolicy
	seed         uint64
	seeded       bool
	expandGuards bool
	log          zerolog.Logger
}
