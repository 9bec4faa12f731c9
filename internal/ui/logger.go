package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Logger provides color-coded leveled logging on stderr
type Logger struct {
	Verbose bool
	Quiet   bool
	NoColor bool

	out     io.Writer
	info    *color.Color
	success *color.Color
	warning *color.Color
	errorC  *color.Color
	debug   *color.Color
}

// NewLogger creates a new logger. Color is also disabled when stderr is
// not a terminal.
func NewLogger(verbose, quiet, noColor bool) *Logger {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		noColor = true
	}
	return NewLoggerTo(os.Stderr, verbose, quiet, noColor)
}

// NewLoggerTo creates a logger writing to out
func NewLoggerTo(out io.Writer, verbose, quiet, noColor bool) *Logger {
	l := &Logger{
		Verbose: verbose,
		Quiet:   quiet,
		NoColor: noColor,
		out:     out,
		info:    color.New(color.FgBlue),
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		errorC:  color.New(color.FgRed),
		debug:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{l.info, l.success, l.warning, l.errorC, l.debug} {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return l
}

func (l *Logger) print(c *color.Color, prefix, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(l.out, c.Sprint(prefix+msg))
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.Quiet {
		return
	}
	l.print(l.info, "[INFO] ", format, args...)
}

// Success logs a success message
func (l *Logger) Success(format string, args ...interface{}) {
	if l.Quiet {
		return
	}
	l.print(l.success, "[SUCCESS] ", format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.print(l.warning, "[WARNING] ", format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.print(l.errorC, "[ERROR] ", format, args...)
}

// Debug logs a debug message (only if verbose is enabled)
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.Verbose {
		return
	}
	l.print(l.debug, "[DEBUG] ", format, args...)
}
