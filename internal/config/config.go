// Package config loads the environment-driven settings of the disk and
// firewall tools into validated structs.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Environment variable names read by the tools.
const (
	EnvPath       = "path"
	EnvDisk       = "disk"
	EnvKeyType    = "keyType"
	EnvWrapKey    = "wrapkey"
	EnvAllowPorts = "allowPorts"
)

// KeyTypeNone disables encryption. Any other key type selects LUKS.
const KeyTypeNone = "none"

// LookupFunc resolves an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// MissingError reports a required setting that was not provided
type MissingError struct {
	Name        string
	Description string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s is not set (%s)", e.Name, e.Description)
}

// InvalidError reports a setting that was provided with an unusable value
type InvalidError struct {
	Name   string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Name, e.Reason)
}

// DiskConfig holds the disk provisioner settings
type DiskConfig struct {
	Path    string // Mount directory
	Disk    string // Device short name, e.g. vdb
	KeyType string // "none" or any encryption key type
	WrapKey []byte // Secret unlocking the LUKS container; nil when unset
}

// LoadDisk reads the disk provisioner settings from the environment.
// Values are taken verbatim. The result is not validated; call Validate
// once flags are applied.
func LoadDisk(lookup LookupFunc) *DiskConfig {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := &DiskConfig{
		Path:    get(lookup, EnvPath),
		Disk:    get(lookup, EnvDisk),
		KeyType: get(lookup, EnvKeyType),
	}
	if key, ok := lookup(EnvWrapKey); ok {
		cfg.WrapKey = []byte(key)
	}
	return cfg
}

// Encrypted reports whether the disk should be LUKS encrypted
func (c *DiskConfig) Encrypted() bool {
	return c.KeyType != KeyTypeNone
}

// Validate checks that every required setting is present
func (c *DiskConfig) Validate() error {
	if c.Path == "" {
		return &MissingError{Name: EnvPath, Description: "mount directory"}
	}
	if c.Disk == "" {
		return &MissingError{Name: EnvDisk, Description: "disk device name"}
	}
	if strings.Contains(c.Disk, "/") {
		return &InvalidError{Name: EnvDisk, Reason: "expected a device name such as vdb, not a path"}
	}
	if c.KeyType == "" {
		return &MissingError{Name: EnvKeyType, Description: `"none" or an encryption key type`}
	}
	if c.Encrypted() {
		if c.WrapKey == nil {
			return &MissingError{Name: EnvWrapKey, Description: "required when keyType is not none"}
		}
		// luksFormat would otherwise protect the disk with an empty passphrase
		if len(c.WrapKey) == 0 {
			return &InvalidError{Name: EnvWrapKey, Reason: "set but empty"}
		}
	}
	return nil
}

// FirewallConfig holds the firewall configurator settings
type FirewallConfig struct {
	AllowPorts string // Comma separated ports or start:end ranges
}

// LoadFirewall reads the firewall settings from the environment
func LoadFirewall(lookup LookupFunc) *FirewallConfig {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &FirewallConfig{
		AllowPorts: get(lookup, EnvAllowPorts),
	}
}

func get(lookup LookupFunc, key string) string {
	value, _ := lookup(key)
	return value
}
