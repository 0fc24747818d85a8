package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/procbridge/internal/app"
	"github.com/vk/procbridge/internal/config"
	"github.com/vk/procbridge/internal/handlers"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// Execute runs the command line in args. Results are written to outW, logs
// and help text to errW. Usage problems are returned as *ExitError with code 2.
func Execute(ctx context.Context, args []string, outW, errW io.Writer, modules ...handlers.Module) error {
	root := NewRootCommand(outW, errW, modules...)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the procbridge command tree.
func NewRootCommand(outW, errW io.Writer, modules ...handlers.Module) *cobra.Command {
	var (
		cfgFile string
		cfg     *config.Config
	)

	root := &cobra.Command{
		Use:           "procbridge",
		Short:         "procbridge - typed read procedures over a property graph",
		Long:          "procbridge binds Go functions declared in HCL manifests as read procedures and calls them against a graph snapshot.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return usageError(fmt.Errorf("loading config: %w", err))
			}
			return nil
		},
	}
	root.SetOut(errW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Path to a config file (default ./procbridge.yaml if present).")
	pf.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.String("graph", "", "Path to a YAML graph snapshot.")
	pf.String("sqlite", "", "Path to a SQLite graph snapshot.")
	pf.String("modules-path", config.DefaultModulesPath, "Directory searched for additional .hcl manifests.")
	pf.String("metrics-file", "", "Write metrics in text exposition format to this file after the command.")

	// withApp builds the application for one command and flushes its
	// metrics afterwards.
	withApp := func(cmd *cobra.Command, fn func(context.Context, *app.App) error) error {
		a, err := app.NewApp(cmd.Context(), outW, errW, cfg, modules...)
		if err != nil {
			return err
		}
		runErr := fn(cmd.Context(), a)
		closeErr := a.Close()
		return errors.Join(runErr, closeErr)
	}

	root.AddCommand(
		callCmd(withApp),
		listCmd(withApp),
		describeCmd(withApp),
		validateCmd(withApp),
		serveCmd(withApp, &cfg),
	)
	return root
}

type appRunner func(*cobra.Command, func(context.Context, *app.App) error) error

// args wraps a cobra argument validator so that its failures are usage errors.
func args(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := v(cmd, a); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func callCmd(run appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "call NAME [ARG...]",
		Short: "Call a procedure and print its rows as JSON lines",
		Long: `Call a procedure by its qualified name. Each ARG is an HCL literal such as
42, "ada", [1, 2] or {since = 2020}; a bare word is taken as a string.`,
		Args: args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			if _, err := app.ParseArgs(a[1:]); err != nil {
				return usageError(err)
			}
			return run(cmd, func(ctx context.Context, ap *app.App) error {
				return ap.Call(ctx, a[0], a[1:])
			})
		},
	}
}

func listCmd(run appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered procedures with their signatures",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, ap *app.App) error {
				return ap.List(ctx)
			})
		},
	}
}

func describeCmd(run appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "describe NAME",
		Short: "Print the argument and result JSON schemas of a procedure",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			return run(cmd, func(ctx context.Context, ap *app.App) error {
				return ap.Describe(ctx, a[0])
			})
		},
	}
}

func validateCmd(run appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and bind every manifest, reporting any mismatch",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, ap *app.App) error {
				return ap.Validate(ctx)
			})
		},
	}
}

func serveCmd(run appRunner, cfg **config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics and procedure calls over HTTP",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, ap *app.App) error {
				return ap.Serve(ctx, (*cfg).Server.Listen)
			})
		},
	}
	cmd.Flags().String("listen", config.DefaultListen, "Address the HTTP server listens on.")
	return cmd
}
