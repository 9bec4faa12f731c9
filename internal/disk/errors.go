package disk

import (
	"fmt"
)

// OpenError reports that the container could not be opened for mounting
type OpenError struct {
	Device string
	Mapper string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("cryptsetup open %s as %s failed: %v", e.Device, e.Mapper, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// MountError reports a failed mount command
type MountError struct {
	Device     string
	MountPoint string
	Err        error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("fail to mount %s at %s: %v", e.Device, e.MountPoint, e.Err)
}

func (e *MountError) Unwrap() error { return e.Err }

// AuthError reports that the wrap key does not unlock the container
type AuthError struct {
	Device string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("wrap key does not unlock %s", e.Device)
}

// UnknownError reports cryptsetup output that matches no known state
type UnknownError struct {
	Device string
	Output string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("could not determine the state of %s: %s", e.Device, e.Output)
}
