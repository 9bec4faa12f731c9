package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/nace/cvmprep/internal/disk"
	"github.com/nace/cvmprep/internal/ui"
)

// Process exit codes. 1 and 2 each cover two failure kinds, kept for
// compatibility with the scripts these tools replace.
const (
	ExitOK      = 0
	ExitFailure = 1 // configuration error, cryptsetup open failure, anything else
	ExitMount   = 2 // mount failure or wrong wrap key
	ExitUnknown = 3 // device state could not be classified
)

// ExitCode maps an error returned by a command to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		mountErr   *disk.MountError
		authErr    *disk.AuthError
		unknownErr *disk.UnknownError
	)
	switch {
	case errors.As(err, &mountErr), errors.As(err, &authErr):
		return ExitMount
	case errors.As(err, &unknownErr):
		return ExitUnknown
	default:
		return ExitFailure
	}
}

// Execute runs a root command, logs a failure and returns the exit code
func Execute(cmd *cobra.Command, opts *GlobalOptions) int {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.Execute()
	if err != nil {
		ui.NewLogger(false, false, opts.NoColor).Error("%v", err)
	}
	return ExitCode(err)
}
