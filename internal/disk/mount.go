package disk

import (
	"fmt"

	"github.com/nace/cvmprep/internal/system"
)

// Filesystem created on new partitions and containers
const Filesystem = "ext4"

// MountManager handles filesystem mount operations
type MountManager struct {
	executor   system.Commander
	mountTable string
}

// NewMountManager creates a new mount manager reading mount state from
// mountTable
func NewMountManager(executor system.Commander, mountTable string) *MountManager {
	return &MountManager{
		executor:   executor,
		mountTable: mountTable,
	}
}

// Mount mounts a device to an existing mount point
func (m *MountManager) Mount(device, mountPoint string) error {
	err := m.executor.Run("mount", device, mountPoint)
	if err != nil {
		return fmt.Errorf("failed to mount %s to %s: %w", device, mountPoint, err)
	}
	return nil
}

// Unmount unmounts a mount point
func (m *MountManager) Unmount(mountPoint string) error {
	err := m.executor.Run("umount", mountPoint)
	if err != nil {
		return fmt.Errorf("failed to unmount %s: %w", mountPoint, err)
	}
	return nil
}

// MakeFilesystem creates an ext4 filesystem on a device
func (m *MountManager) MakeFilesystem(device string) error {
	err := m.executor.Run("mkfs."+Filesystem, "-q", "-F", device)
	if err != nil {
		return fmt.Errorf("failed to create %s filesystem on %s: %w", Filesystem, device, err)
	}
	return nil
}

// IsMountPoint reports whether anything is mounted at mountPoint
func (m *MountManager) IsMountPoint(mountPoint string) (bool, error) {
	entries, err := system.ReadMounts(m.mountTable)
	if err != nil {
		return false, err
	}
	_, ok := system.FindMount(entries, mountPoint)
	return ok, nil
}

// MountedAt reports whether device is the filesystem visible at mountPoint
func (m *MountManager) MountedAt(device, mountPoint string) (bool, error) {
	entries, err := system.ReadMounts(m.mountTable)
	if err != nil {
		return false, err
	}
	entry, ok := system.FindMount(entries, mountPoint)
	return ok && entry.Device == device, nil
}
