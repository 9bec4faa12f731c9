package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoadDisk(t *testing.T) {
	cfg := LoadDisk(env(map[string]string{
		"path":    "/mnt/data",
		"disk":    "vdb",
		"keyType": "aes",
		"wrapkey": "00112233",
	}))

	assert.Equal(t, "/mnt/data", cfg.Path)
	assert.Equal(t, "vdb", cfg.Disk)
	assert.True(t, cfg.Encrypted())
	assert.Equal(t, []byte("00112233"), cfg.WrapKey)
	require.NoError(t, cfg.Validate())
}

func TestLoadDiskKeepsValuesVerbatim(t *testing.T) {
	cfg := LoadDisk(env(map[string]string{
		"path":    "/mnt/my data ",
		"disk":    "vdb",
		"keyType": "none",
		"wrapkey": " k ",
	}))

	assert.Equal(t, "/mnt/my data ", cfg.Path)
	assert.Equal(t, []byte(" k "), cfg.WrapKey)
	require.NoError(t, cfg.Validate())
}

func TestLoadDiskEmptyWrapKeyIsSet(t *testing.T) {
	cfg := LoadDisk(env(map[string]string{"wrapkey": ""}))
	assert.NotNil(t, cfg.WrapKey)
	assert.Empty(t, cfg.WrapKey)

	cfg = LoadDisk(env(nil))
	assert.Nil(t, cfg.WrapKey)
}

func TestDiskValidate(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		missing string
		invalid string
	}{
		{
			name:    "no path",
			vars:    map[string]string{"disk": "vdb", "keyType": "none"},
			missing: "path",
		},
		{
			name:    "no disk",
			vars:    map[string]string{"path": "/mnt", "keyType": "none"},
			missing: "disk",
		},
		{
			name:    "no key type",
			vars:    map[string]string{"path": "/mnt", "disk": "vdb"},
			missing: "keyType",
		},
		{
			name:    "encrypted without wrap key",
			vars:    map[string]string{"path": "/mnt", "disk": "vdb", "keyType": "luks"},
			missing: "wrapkey",
		},
		{
			name:    "empty wrap key",
			vars:    map[string]string{"path": "/mnt", "disk": "vdb", "keyType": "luks", "wrapkey": ""},
			invalid: "wrapkey",
		},
		{
			name:    "disk given as path",
			vars:    map[string]string{"path": "/mnt", "disk": "/dev/vdb", "keyType": "none"},
			invalid: "disk",
		},
		{
			name: "plain without wrap key",
			vars: map[string]string{"path": "/mnt", "disk": "vdb", "keyType": "none"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := LoadDisk(env(tc.vars)).Validate()
			switch {
			case tc.missing != "":
				var missing *MissingError
				require.True(t, errors.As(err, &missing), "got %v", err)
				assert.Equal(t, tc.missing, missing.Name)
			case tc.invalid != "":
				var invalid *InvalidError
				require.True(t, errors.As(err, &invalid), "got %v", err)
				assert.Equal(t, tc.invalid, invalid.Name)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestLoadFirewall(t *testing.T) {
	cfg := LoadFirewall(env(map[string]string{"allowPorts": "22,8000:8010"}))
	assert.Equal(t, "22,8000:8010", cfg.AllowPorts)

	cfg = LoadFirewall(env(nil))
	assert.Empty(t, cfg.AllowPorts)
}
