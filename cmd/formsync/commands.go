package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	formsync "github.com/goliatone/go-formsync"
	"github.com/goliatone/go-formsync/pkg/loader"
)

type app struct {
	dataDir    string
	evaluator  string
	verbose    bool
	transitive bool

	engine *formsync.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "formsync",
		Short:         "Inspect and edit synchronized form values",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&a.dataDir, "data", "d", ".formsync", "Directory holding configs, states and globals")
	root.PersistentFlags().StringVarP(&a.evaluator, "evaluator", "e", "expr", "Expression engine for optionsExpr and enabledWhen: expr, cel, js")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log engine operations to stderr")
	root.PersistentFlags().BoolVar(&a.transitive, "transitive", false, "Disable inputs whose dependencies are disabled")

	root.AddCommand(
		a.loadCmd(),
		a.stateCmd(),
		a.setCmd(),
		a.enabledCmd(),
		a.depsCmd(),
		a.optionsCmd(),
		a.globalCmd(),
		a.traceCmd(),
	)
	return root
}

func (a *app) init(stderr io.Writer) error {
	backend, err := formsync.NewFileBackend(a.dataDir)
	if err != nil {
		return fmt.Errorf("open data dir: %w", err)
	}

	opts := []formsync.Option{formsync.WithTransitiveEnablement(a.transitive)}
	if a.verbose {
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, formsync.WithLogger(formsync.NewSlogLogger(logger)))
	}
	switch strings.ToLower(a.evaluator) {
	case "", "expr":
	case "cel":
		opts = append(opts, formsync.WithEvaluator(formsync.NewCELEvaluator()))
	case "js":
		js := formsync.NewJSEvaluator()
		if js == nil {
			return fmt.Errorf("js evaluator requires building with -tags js_eval")
		}
		opts = append(opts, formsync.WithEvaluator(js))
	default:
		return fmt.Errorf("unknown evaluator %q", a.evaluator)
	}

	a.engine, err = formsync.New(backend, opts...)
	return err
}

func (a *app) loadCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "load <dir>",
		Short: "Load YAML/JSON form configs and save them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []loader.Option
			if strict {
				opts = append(opts, loader.WithStrict())
			}
			forms, err := loader.LoadFS(os.DirFS(args[0]), opts...)
			if err != nil {
				return err
			}
			for _, form := range forms {
				if _, err := a.engine.SaveFormConfig(cmd.Context(), form); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d inputs)\n", form.ID, len(form.InputsConfig))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject unknown keys in form documents")
	return cmd
}

func (a *app) stateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state <formId>",
		Short: "Print the effective state of a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, ok, err := a.engine.GetFormState(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("form %q not found", args[0])
			}
			return printJSON(cmd.OutOrStdout(), state)
		},
	}
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <formId> <inputId> <json-value>",
		Short: "Set an input value and save the form",
		Long:  "Set an input value and save the form. The value is parsed as JSON; anything that is not valid JSON is stored as a string.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := a.engine.SetInputValue(cmd.Context(), args[0], args[1], parseValue(args[2]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), state)
		},
	}
}

func (a *app) enabledCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enabled <formId> <inputId>",
		Short: "Report whether an input is enabled",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := a.engine.IsEnabled(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), enabled)
			return nil
		},
	}
}

func (a *app) depsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps <formId> <inputId>",
		Short: "Print the current values of an input's dependencies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.engine.GetInputDependenciesState(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), deps)
		},
	}
}

func (a *app) optionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options <formId> <inputId>",
		Short: "Print the options of an input",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := a.engine.GetInputOptions(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), options)
		},
	}
}

func (a *app) globalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "global <key>",
		Short: "Print a global value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok, err := a.engine.GetGlobalValue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("global %q not found", args[0])
			}
			return printJSON(cmd.OutOrStdout(), value)
		},
	}
}

func (a *app) traceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trace <formId> <inputId>",
		Short: "Explain where an input's displayed value comes from",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, trace, err := a.engine.TraceInput(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), trace)
		},
	}
}

func parseValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}

func printJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
