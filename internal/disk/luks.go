package disk

import (
	"fmt"

	"github.com/nace/cvmprep/internal/system"
)

// DefaultLUKSType is the on-disk format used by luksFormat
const DefaultLUKSType = "luks2"

// LUKSManager handles LUKS operations. Keys are always passed on stdin so
// they never show up in process listings or debug output.
type LUKSManager struct {
	executor system.Commander
	luksType string
}

// NewLUKSManager creates a new LUKS manager
func NewLUKSManager(executor system.Commander) *LUKSManager {
	return &LUKSManager{
		executor: executor,
		luksType: DefaultLUKSType,
	}
}

// Format formats a device as LUKS
func (m *LUKSManager) Format(device string, key []byte) error {
	err := m.executor.RunInput(key, "cryptsetup", "luksFormat", "--batch-mode", "--type", m.luksType, device)
	if err != nil {
		return fmt.Errorf("failed to format LUKS container %s: %w", device, err)
	}
	return nil
}

// IsLUKS checks if a device carries a LUKS header. Only exit status 1
// means the device was read and has no header; any other failure is
// returned as an error and says nothing about the device.
func (m *LUKSManager) IsLUKS(device string) (bool, error) {
	err := m.executor.Run("cryptsetup", "isLuks", device)
	switch {
	case err == nil:
		return true, nil
	case system.ExitCode(err) == 1:
		return false, nil
	default:
		return false, fmt.Errorf("failed to check LUKS header on %s: %w", device, err)
	}
}

// Open opens a LUKS container under mapperName
func (m *LUKSManager) Open(device, mapperName string, key []byte) error {
	err := m.executor.RunInput(key, "cryptsetup", "open", device, mapperName)
	if err != nil {
		return fmt.Errorf("failed to open LUKS container %s: %w", device, err)
	}
	return nil
}

// TryOpen attempts to open a container and returns what cryptsetup
// printed, so a failure can be classified.
func (m *LUKSManager) TryOpen(device, mapperName string, key []byte) (string, error) {
	return m.executor.RunCombined(key, "cryptsetup", "luksOpen", device, mapperName)
}

// Close closes a LUKS container
func (m *LUKSManager) Close(mapperName string) error {
	err := m.executor.Run("cryptsetup", "close", mapperName)
	if err != nil {
		return fmt.Errorf("failed to close LUKS container %s: %w", mapperName, err)
	}
	return nil
}
