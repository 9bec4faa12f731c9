package cli

import (
	"github.com/spf13/pflag"

	"github.com/nace/cvmprep/internal/system"
	"github.com/nace/cvmprep/internal/ui"
)

// GlobalOptions are the flags shared by both tools
type GlobalOptions struct {
	Verbose bool
	Quiet   bool
	NoColor bool
	Debug   bool
	DryRun  bool
}

// Register adds the shared flags to a flag set
func (o *GlobalOptions) Register(flags *pflag.FlagSet) {
	flags.BoolVarP(&o.Verbose, "verbose", "v", false, "Verbose output")
	flags.BoolVarP(&o.Quiet, "quiet", "q", false, "Quiet mode (suppress non-error output)")
	flags.BoolVar(&o.NoColor, "no-color", false, "Disable color output")
	flags.BoolVar(&o.Debug, "debug", false, "Debug mode (show commands)")
	flags.BoolVar(&o.DryRun, "dry-run", false, "Print commands instead of running them")
}

// GlobalContext holds shared resources for a command run
type GlobalContext struct {
	Executor *system.Executor
	Logger   *ui.Logger
	DryRun   bool
}

// NewGlobalContext creates a new global context from parsed options
func NewGlobalContext(opts GlobalOptions) *GlobalContext {
	return &GlobalContext{
		Executor: system.NewExecutor(opts.Debug, opts.DryRun),
		Logger:   ui.NewLogger(opts.Verbose, opts.Quiet, opts.NoColor),
		DryRun:   opts.DryRun,
	}
}

// Prepare checks privileges and that every required command is installed
func (ctx *GlobalContext) Prepare(deps []string) error {
	if err := system.RequireRoot(ctx.DryRun); err != nil {
		return err
	}
	if ctx.DryRun {
		return nil
	}
	return ctx.Executor.CheckDependencies(deps)
}
