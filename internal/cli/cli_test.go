package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nace/cvmprep/internal/config"
	"github.com/nace/cvmprep/internal/disk"
	"github.com/nace/cvmprep/internal/firewall"
)

func env(vars map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func testLayout(t *testing.T) disk.Layout {
	root := t.TempDir()
	mounts := filepath.Join(root, "mounts")
	require.NoError(t, os.WriteFile(mounts, nil, 0644))
	return disk.Layout{DevDir: filepath.Join(root, "dev"), MountTable: mounts}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"missing config", &config.MissingError{Name: "path"}, ExitFailure},
		{"open failure", &disk.OpenError{Device: "/dev/vdb1", Mapper: "vdb1", Err: errors.New("x")}, ExitFailure},
		{"mount failure", fmt.Errorf("wrapped: %w", &disk.MountError{Err: errors.New("x")}), ExitMount},
		{"wrong key", &disk.AuthError{Device: "/dev/vdb1"}, ExitMount},
		{"unknown state", &disk.UnknownError{Device: "/dev/vdb1"}, ExitUnknown},
		{"other", errors.New("boom"), ExitFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

func TestDiskCommandMissingConfig(t *testing.T) {
	cmd, opts := newDiskCommand(env(map[string]string{"disk": "vdb", "keyType": "none"}), testLayout(t))
	cmd.SetArgs([]string{"--quiet"})

	assert.Equal(t, ExitFailure, Execute(cmd, opts))
}

func TestDiskCommandMissingWrapKey(t *testing.T) {
	cmd, _ := newDiskCommand(env(map[string]string{
		"path": "/mnt/data", "disk": "vdb", "keyType": "luks",
	}), testLayout(t))
	cmd.SetArgs([]string{"--quiet", "--dry-run"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.Execute()

	var missing *config.MissingError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, config.EnvWrapKey, missing.Name)
}

func TestDiskCommandEmptyWrapKey(t *testing.T) {
	cmd, _ := newDiskCommand(env(map[string]string{
		"path": "/mnt/data", "disk": "vdb", "keyType": "luks", "wrapkey": "",
	}), testLayout(t))
	cmd.SetArgs([]string{"--quiet", "--dry-run"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.Execute()

	var invalid *config.InvalidError
	require.True(t, errors.As(err, &invalid), "got %v", err)
	assert.Equal(t, config.EnvWrapKey, invalid.Name)
}

func TestDiskCommandDryRun(t *testing.T) {
	layout := testLayout(t)
	mountDir := filepath.Join(t.TempDir(), "data")
	cmd, opts := newDiskCommand(env(map[string]string{
		"path": mountDir, "disk": "vdb", "keyType": "luks", "wrapkey": "k",
	}), layout)
	cmd.SetArgs([]string{"--quiet", "--dry-run"})

	assert.Equal(t, ExitOK, Execute(cmd, opts))
	assert.NoDirExists(t, mountDir)
}

func TestDiskCommandFlagsOverrideEnvironment(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(keyFile, []byte("from-file\n"), 0600))

	cmd, _ := newDiskCommand(env(map[string]string{"keyType": "none"}), testLayout(t))
	cmd.SetArgs([]string{
		"--quiet", "--dry-run",
		"--path", filepath.Join(t.TempDir(), "data"),
		"--disk", "vdc",
		"--key-type", "luks",
		"--wrapkey-file", keyFile,
	})

	require.NoError(t, cmd.Execute())
}

func TestDiskCommandRejectsMissingKeyFile(t *testing.T) {
	cmd, opts := newDiskCommand(env(map[string]string{
		"path": "/mnt/data", "disk": "vdb", "keyType": "luks",
	}), testLayout(t))
	cmd.SetArgs([]string{"--quiet", "--wrapkey-file", "/nonexistent/key"})

	assert.Equal(t, ExitFailure, Execute(cmd, opts))
}

func TestFirewallCommandDryRunJSON(t *testing.T) {
	cmd, _ := newFirewallCommand(env(map[string]string{"allowPorts": "22,8000:8010"}))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--quiet", "--dry-run", "--json"})

	require.NoError(t, cmd.Execute())

	var results []firewall.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	assert.Equal(t, []firewall.Result{{Rule: "22/tcp"}, {Rule: "8000:8010/tcp"}}, results)
}

func TestFirewallCommandWithoutPorts(t *testing.T) {
	cmd, _ := newFirewallCommand(env(nil))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--quiet", "--dry-run"})

	require.NoError(t, cmd.Execute())
	assert.Empty(t, out.String())
}

func TestFirewallCommandInvalidPort(t *testing.T) {
	cmd, opts := newFirewallCommand(env(nil))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--quiet", "--dry-run", "--allow-ports", "22,http"})

	assert.Equal(t, ExitFailure, Execute(cmd, opts))
	assert.Contains(t, out.String(), "22/tcp")
}
