package system

import (
	"fmt"
	"os"
)

var geteuid = os.Geteuid

// IsRoot checks if running as root
func IsRoot() bool {
	return geteuid() == 0
}

// RequireRoot ensures the program is running as root. Dry runs only print
// commands and are allowed for any user.
func RequireRoot(dryRun bool) error {
	if dryRun || IsRoot() {
		return nil
	}
	return fmt.Errorf("this command must be run as root (try with sudo)")
}
