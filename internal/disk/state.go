package disk

import (
	"strings"
)

// DeviceState classifies a disk before the encrypted mount
type DeviceState int

const (
	StateUnknown        DeviceState = iota
	StateUnlockable                 // LUKS container the wrap key opens
	StateAlreadyMounted             // mapper already active
	StateNotLUKS                    // partition exists without a LUKS header
	StateDeviceMissing              // partition node does not exist
	StateWrongKey                   // LUKS container the wrap key does not open
	StateMapped                     // mapper active but not mounted at the path
)

func (s DeviceState) String() string {
	switch s {
	case StateUnlockable:
		return "unlockable"
	case StateAlreadyMounted:
		return "already mounted"
	case StateNotLUKS:
		return "not a LUKS device"
	case StateDeviceMissing:
		return "device missing"
	case StateWrongKey:
		return "wrong key"
	case StateMapped:
		return "mapped, not mounted"
	default:
		return "unknown"
	}
}

// openOutputPatterns maps cryptsetup luksOpen messages to device states.
// Only consulted when the explicit checks did not decide the state.
var openOutputPatterns = []struct {
	substr string
	state  DeviceState
}{
	{"already mapped or mounted", StateAlreadyMounted},
	{"not a valid LUKS device", StateNotLUKS},
	{"doesn't exist or access denied", StateDeviceMissing},
	{"No key available", StateWrongKey},
}

// ClassifyOpenOutput classifies the output of a failed luksOpen
func ClassifyOpenOutput(output string) DeviceState {
	for _, p := range openOutputPatterns {
		if strings.Contains(output, p.substr) {
			return p.state
		}
	}
	return StateUnknown
}
