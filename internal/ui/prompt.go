package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/nace/cvmprep/internal/system"
)

// ReadSecret reads a secret from stdin. On a terminal it prompts and
// disables echo; otherwise it reads the first line of piped input.
func ReadSecret(prompt string) (*system.Secret, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(os.Stderr, "%s: ", prompt)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, err
		}
		return system.NewSecret(secret), nil
	}
	return ReadSecretFrom(os.Stdin)
}

// ReadSecretFrom reads the first line of r, without its line terminator
func ReadSecretFrom(r io.Reader) (*system.Secret, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	return system.SecretFromLine(line), nil
}
