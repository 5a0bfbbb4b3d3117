package tagweaver

import (
	"fmt"
	"regexp"
)

// Validator checks a template against a registry before it is queued.
type Validator interface {
	// Validate returns nil if the template is acceptable.
	Validate(template string, reg *Registry) error
}

// RegexValidator requires the template to match a regular expression.
type RegexValidator struct {
	Pattern     *regexp.Regexp
	Description string // Human-readable description of what the pattern expects
}

// Validate implements the Validator interface.
func (v *RegexValidator) Validate(template string, _ *Registry) error {
	if !v.Pattern.MatchString(template) {
		return NewValidationError(fmt.Sprintf("template does not match expected pattern: %s", v.Description))
	}
	return nil
}

// FuncValidator uses a custom function to validate a template.
type FuncValidator struct {
	ValidateFunc func(template string, reg *Registry) error
}

// Validate implements the Validator interface.
func (v *FuncValidator) Validate(template string, reg *Registry) error {
	return v.ValidateFunc(template, reg)
}

// RequireTags rejects templates that use no tag and no conditional at all.
type RequireTags struct{}

// Validate implements the Validator interface.
func (RequireTags) Validate(template string, _ *Registry) error {
	set := Scan(template)
	if len(set.Tags()) == 0 && len(set.Conditions) == 0 {
		return NewValidationError("template must contain at least one tag")
	}
	return nil
}

// RequiredDefined rejects required tags missing from the registry. Optional,
// random and conditional names may stay undefined.
type RequiredDefined struct{}

// Validate implements the Validator interface.
func (RequiredDefined) Validate(template string, reg *Registry) error {
	var missing []string
	for _, name := range Scan(template).Required {
		if !reg.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return NewValidationError("required tags not defined", missing...)
	}
	return nil
}

// RequiredNonEmpty rejects defined required tags that have no entries.
type RequiredNonEmpty struct{}

// Validate implements the Validator interface.
func (RequiredNonEmpty) Validate(template string, reg *Registry) error {
	var empty []string
	for _, name := range Scan(template).Required {
		if reg.Has(name) && len(reg.Entries(name)) == 0 {
			empty = append(empty, name)
		}
	}
	if len(empty) > 0 {
		return NewValidationError("required tags have no values", empty...)
	}
	return nil
}

// ValidatorChain runs validators in order and stops at the first failure.
type ValidatorChain struct {
	validators []Validator
}

// NewValidatorChain creates a chain from the given validators.
func NewValidatorChain(validators ...Validator) *ValidatorChain {
	c := &ValidatorChain{}
	for _, v := range validators {
		c.Register(v)
	}
	return c
}

// DefaultValidators returns the checks run before a template is queued.
func DefaultValidators() *ValidatorChain {
	return NewValidatorChain(RequireTags{}, RequiredDefined{}, RequiredNonEmpty{})
}

// Register appends a validator. Nil validators are ignored.
func (c *ValidatorChain) Register(v Validator) {
	if v == nil {
		return
	}
	c.validators = append(c.validators, v)
}

// RegisterRegex creates and registers a RegexValidator.
func (c *ValidatorChain) RegisterRegex(pattern, description string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}
	c.Register(&RegexValidator{Pattern: re, Description: description})
	return nil
}

// RegisterFunc creates and registers a FuncValidator.
func (c *ValidatorChain) RegisterFunc(fn func(string, *Registry) error) {
	c.Register(&FuncValidator{ValidateFunc: fn})
}

// Validate implements the Validator interface.
func (c *ValidatorChain) Validate(template string, reg *Registry) error {
	for _, v := range c.validators {
		if err := v.Validate(template, reg); err != nil {
			return err
		}
	}
	return nil
}
