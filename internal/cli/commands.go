package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/grahms/tagweaver"
	"github.com/grahms/tagweaver/internal/config"
	"github.com/grahms/tagweaver/internal/logging"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:   "tagweaver",
		Short: "Expand prompt templates into every tag combination",
		Long: `tagweaver expands templates written with {{tag}}, {{?tag}}, {{tag:random}},
{{$toggle name}} and {{$if cond}}...{{$else}}...{{$endif}} against a tag file,
listing, counting or previewing every prompt they can produce.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLoggerTo(cmd.ErrOrStderr(), app.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&app.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default ./"+config.DefaultFile+")")
	rootCmd.PersistentFlags().StringVar(&app.tagsPath, "tags", "", "tag file (.json, .yaml, .yml or .toml)")

	rootCmd.AddCommand(newEnumerateCmd(app))
	rootCmd.AddCommand(newCountCmd(app))
	rootCmd.AddCommand(newRenderCmd(app))
	rootCmd.AddCommand(newPreviewCmd(app))
	rootCmd.AddCommand(newLintCmd(app))
	rootCmd.AddCommand(newTogglesCmd(app))

	return rootCmd
}

func newEnumerateCmd(app *app) *cobra.Command {
	var (
		in      templateInput
		toggles []string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "enumerate [fragments...]",
		Short: "Print every combination of a template",
		Example: `  tagweaver --tags tags.yaml enumerate "1girl" "{{emotion}}, {{?outfit}}"
  echo "{{emotion}}" | tagweaver --tags tags.yaml enumerate --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd, args, in, toggles)
			if err != nil {
				return err
			}
			defer logging.LogOperationStart(s.log, "enumerate")()

			out := cmd.OutOrStdout()
			asJSON = asJSON || s.cfg.Output.Format == "json"
			rows := []combinationRow{}
			n := 0
			err = s.engine.Walk(s.template, s.toggles, tagweaver.CombinationSinkFunc(func(a tagweaver.Assignment) error {
				n++
				row := combinationRow{
					Index:      n,
					Name:       tagweaver.ComboName(s.template, a),
					Assignment: a,
					Prompt:     s.engine.Render(s.template, a),
				}
				if asJSON {
					rows = append(rows, row)
					return nil
				}
				_, err := fmt.Fprintf(out, "%s\t%s\n", row.Name, row.Prompt)
				return err
			}))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, rows)
			}
			return nil
		},
	}
	in.bind(cmd)
	bindToggles(cmd, &toggles)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print combinations as JSON")
	return cmd
}

func newCountCmd(app *app) *cobra.Command {
	var (
		in      templateInput
		toggles []string
	)
	cmd := &cobra.Command{
		Use:   "count [fragments...]",
		Short: "Print the number of combinations of a template",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd, args, in, toggles)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s.engine.Count(s.template, s.toggles))
			return err
		},
	}
	in.bind(cmd)
	bindToggles(cmd, &toggles)
	return cmd
}

func newRenderCmd(app *app) *cobra.Command {
	var (
		in      templateInput
		toggles []string
		sets    []string
	)
	cmd := &cobra.Command{
		Use:   "render [fragments...]",
		Short: "Render one prompt",
		Long: `Render prints the final prompt for the given toggles and --set values. Tags
without a --set value take the first value of the tag file.`,
		Example: `  tagweaver --tags tags.yaml render --set emotion=smile --toggle nsfw=false "{{emotion}}"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd, args, in, toggles)
			if err != nil {
				return err
			}
			values, err := parseSets(sets)
			if err != nil {
				return err
			}
			prompt := s.engine.RenderFirst(s.template, s.toggles.Merge(values))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), prompt)
			return err
		},
	}
	in.bind(cmd)
	bindToggles(cmd, &toggles)
	cmd.Flags().StringArrayVar(&sets, "set", nil, "assign a tag value (name=value), repeatable")
	return cmd
}

func newPreviewCmd(app *app) *cobra.Command {
	var (
		in      templateInput
		toggles []string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "preview [fragments...]",
		Short: "Show the first combinations of a template",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd, args, in, toggles)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = s.cfg.Preview.Limit
			}
			p := s.engine.Preview(s.template, s.toggles, limit)
			return writePreview(cmd.OutOrStdout(), p, s.cfg.Preview.WarnThreshold)
		},
	}
	in.bind(cmd)
	bindToggles(cmd, &toggles)
	cmd.Flags().IntVar(&limit, "limit", 0, "number of combinations to render (0 for all; default from config)")
	return cmd
}

func newLintCmd(app *app) *cobra.Command {
	var in templateInput
	cmd := &cobra.Command{
		Use:   "lint [fragments...]",
		Short: "Report template problems",
		Long: `Lint reports unclosed blocks, stray {{$else}} and {{$endif}} tokens and
malformed control tokens, then checks the template's required tags against the
tag file. It exits non-zero when anything is found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd, args, in, nil)
			if err != nil {
				return err
			}
			problems := tagweaver.Lint(s.template)
			if err := tagweaver.DefaultValidators().Validate(s.template, s.engine.Registry()); err != nil {
				problems = append(problems, err)
			}

			out := cmd.OutOrStdout()
			for _, p := range problems {
				fmt.Fprintln(out, p.Error())
			}
			if len(problems) > 0 {
				return fmt.Errorf("found %d problem(s)", len(problems))
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
	in.bind(cmd)
	return cmd
}

func newTogglesCmd(app *app) *cobra.Command {
	var in templateInput
	cmd := &cobra.Command{
		Use:   "toggles [fragments...]",
		Short: "List the toggles a template declares",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd, args, in, nil)
			if err != nil {
				return err
			}
			toggles := tagweaver.Scan(s.template).Toggles
			if len(toggles) == 0 {
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(toggles, "\n"))
			return err
		},
	}
	in.bind(cmd)
	return cmd
}

// combinationRow is the JSON shape of one enumerated combination.
type combinationRow struct {
	Index      int                  `json:"index"`
	Name       string               `json:"name"`
	Assignment tagweaver.Assignment `json:"assignment"`
	Prompt     string               `json:"prompt"`
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
