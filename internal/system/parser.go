package system

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// MountEntry is one line of the kernel mount table
type MountEntry struct {
	Device     string
	MountPoint string
	Filesystem string
}

// ParseMounts parses /proc/mounts formatted data.
// Format: "device mountpoint fstype options dump pass"
func ParseMounts(data string) []MountEntry {
	var entries []MountEntry
	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		entries = append(entries, MountEntry{
			Device:     unescapeMountField(fields[0]),
			MountPoint: unescapeMountField(fields[1]),
			Filesystem: fields[2],
		})
	}
	return entries
}

// ReadMounts reads and parses a mount table file
func ReadMounts(path string) ([]MountEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mount table: %w", err)
	}
	return ParseMounts(string(data)), nil
}

// FindMount returns the entry mounted at mountPoint, if any. The last
// match wins, as later mounts shadow earlier ones.
func FindMount(entries []MountEntry, mountPoint string) (MountEntry, bool) {
	var found MountEntry
	ok := false
	for _, e := range entries {
		if e.MountPoint == mountPoint {
			found, ok = e, true
		}
	}
	return found, ok
}

// unescapeMountField decodes the octal escapes the kernel uses for
// whitespace and backslashes in mount table fields.
func unescapeMountField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	r := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return r.Replace(s)
}
