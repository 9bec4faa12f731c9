package disk

import (
	"path/filepath"
)

// ProbeMapperName is the throwaway mapper name used to test whether the
// wrap key unlocks a container.
const ProbeMapperName = "testname"

// Layout locates the host paths the provisioner inspects
type Layout struct {
	DevDir     string // Device node directory, normally /dev
	MountTable string // Kernel mount table, normally /proc/mounts
}

// DefaultLayout returns the layout of a running Linux host
func DefaultLayout() Layout {
	return Layout{
		DevDir:     "/dev",
		MountTable: "/proc/mounts",
	}
}

// Device holds the derived names for one disk
type Device struct {
	Name       string // Short name, e.g. vdb
	Raw        string // Raw block device, e.g. /dev/vdb
	Partition  string // First partition, e.g. /dev/vdb1
	MapperName string // dm-crypt mapper name, e.g. vdb1
	MapperPath string // Decrypted device, e.g. /dev/mapper/vdb1
}

// Device derives the device paths for a disk short name. The partition
// and the mapper share the name {disk}1.
func (l Layout) Device(disk string) Device {
	part := disk + "1"
	return Device{
		Name:       disk,
		Raw:        filepath.Join(l.DevDir, disk),
		Partition:  filepath.Join(l.DevDir, part),
		MapperName: part,
		MapperPath: l.MapperPath(part),
	}
}

// MapperPath returns the device node of an opened mapper
func (l Layout) MapperPath(name string) string {
	return filepath.Join(l.DevDir, "mapper", name)
}
