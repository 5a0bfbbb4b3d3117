package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/grahms/tagweaver"
	"github.com/grahms/tagweaver/internal/config"
	"github.com/grahms/tagweaver/internal/logging"
)

// app holds the global flags shared by every command.
type app struct {
	verbosity  int
	configPath string
	tagsPath   string
}

// session is everything a command needs once flags and input are resolved.
type session struct {
	cfg      *config.Config
	engine   *tagweaver.Engine
	template string
	toggles  tagweaver.Assignment
	log      zerolog.Logger
}

func (a *app) session(cmd *cobra.Command, args []string, in templateInput, toggleFlags []string) (*session, error) {
	logger := logging.GetLogger("cli")

	overrides := map[string]interface{}{}
	if a.tagsPath != "" {
		overrides["tags.file"] = a.tagsPath
	}
	cfg, err := config.Load(config.Options{Path: a.configPath, Overrides: overrides})
	if err != nil {
		return nil, err
	}

	reg := tagweaver.NewRegistry()
	if cfg.Tags.File != "" {
		if reg, err = tagweaver.LoadRegistryFile(cfg.Tags.File); err != nil {
			return nil, err
		}
		logger.Info().Str("file", cfg.Tags.File).Int("tags", reg.Len()).Msg("Loaded tag file")
	} else {
		logger.Debug().Msg("No tag file configured, every tag has a single empty value")
	}

	template, err := in.read(cmd, args, cfg.Render.Separator)
	if err != nil {
		return nil, err
	}
	toggles, err := parseToggles(toggleFlags)
	if err != nil {
		return nil, err
	}

	opts := append(cfg.EngineOptions(), tagweaver.WithLogger(logging.GetLogger("engine")))
	return &session{
		cfg:      cfg,
		engine:   tagweaver.NewEngine(reg, opts...),
		template: template,
		toggles:  toggles,
		log:      logger,
	}, nil
}

// templateInput reads a template from --file, the positional fragments or
// stdin, in that order of preference.
type templateInput struct {
	file string
}

func (in *templateInput) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&in.file, "file", "f", "", "read the template from a file")
}

func (in templateInput) read(cmd *cobra.Command, args []string, sep string) (string, error) {
	var template string
	switch {
	case in.file != "":
		data, err := os.ReadFile(in.file)
		if err != nil {
			return "", fmt.Errorf("failed to read template: %w", err)
		}
		template = string(data)
	case len(args) > 0:
		template = tagweaver.JoinFragmentsSep(sep, args...)
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read template from stdin: %w", err)
		}
		template = string(data)
	}
	template = strings.TrimRight(template, "\r\n")
	if strings.TrimSpace(template) == "" {
		return "", errors.New("no template given: pass fragments, --file or stdin")
	}
	return template, nil
}

func bindToggles(cmd *cobra.Command, toggles *[]string) {
	cmd.Flags().StringArrayVar(toggles, "toggle", nil, "set a toggle (name or name=bool), repeatable")
}

// parseToggles reads "name" (on) and "name=bool" flag values.
func parseToggles(values []string) (tagweaver.Assignment, error) {
	flags := make(map[string]bool, len(values))
	for _, v := range values {
		name, raw, hasValue := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid --toggle %q: missing name", v)
		}
		on := true
		if hasValue {
			b, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				return nil, fmt.Errorf("invalid --toggle %q: %w", v, err)
			}
			on = b
		}
		flags[name] = on
	}
	return tagweaver.Toggles(flags), nil
}

// parseSets reads "name=value" flag values.
func parseSets(values []string) (tagweaver.Assignment, error) {
	out := make(tagweaver.Assignment, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: want name=value", v)
		}
		out[name] = value
	}
	return out, nil
}
