package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nace/cvmprep/internal/config"
	"github.com/nace/cvmprep/internal/disk"
	"github.com/nace/cvmprep/internal/system"
	"github.com/nace/cvmprep/internal/ui"
)

// DiskCommand mounts a data disk, preparing it on first use
type DiskCommand struct {
	Options GlobalOptions

	ctx          *GlobalContext
	path         string
	disk         string
	keyType      string
	wrapkeyFile  string
	wrapkeyStdin bool

	lookup config.LookupFunc
	layout disk.Layout
}

// NewDiskCommand creates the disktool root command
func NewDiskCommand() (*cobra.Command, *GlobalOptions) {
	return newDiskCommand(os.LookupEnv, disk.DefaultLayout())
}

func newDiskCommand(lookup config.LookupFunc, layout disk.Layout) (*cobra.Command, *GlobalOptions) {
	c := &DiskCommand{lookup: lookup, layout: layout}

	cobraCmd := &cobra.Command{
		Use:   "disktool",
		Short: "Mount a data disk, encrypting it on first use",
		Long: `disktool mounts /dev/<disk>1 at a directory.

A disk without a partition is partitioned and formatted first. Unless
keyType is "none" the partition is a LUKS container unlocked with the wrap
key; a disk that is not yet LUKS formatted is encrypted on first use.

Settings come from the environment (path, disk, keyType, wrapkey) and
can be overridden with flags.`,
		Args:    cobra.NoArgs,
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.ctx = NewGlobalContext(c.Options)
		},
		RunE: c.Run,
	}

	c.Options.Register(cobraCmd.PersistentFlags())
	cobraCmd.Flags().StringVar(&c.path, "path", "", "Mount directory (env: path)")
	cobraCmd.Flags().StringVar(&c.disk, "disk", "", "Disk device name, e.g. vdb (env: disk)")
	cobraCmd.Flags().StringVar(&c.keyType, "key-type", "", `Key type, "none" disables encryption (env: keyType)`)
	cobraCmd.Flags().StringVar(&c.wrapkeyFile, "wrapkey-file", "", "Read the wrap key from a file (env: wrapkey)")
	cobraCmd.Flags().BoolVar(&c.wrapkeyStdin, "wrapkey-stdin", false, "Read the wrap key from stdin")
	cobraCmd.MarkFlagsMutuallyExclusive("wrapkey-file", "wrapkey-stdin")

	return cobraCmd, &c.Options
}

// Run executes the disk provisioning
func (c *DiskCommand) Run(cmd *cobra.Command, args []string) error {
	cfg := config.LoadDisk(c.lookup)
	flags := cmd.Flags()
	if flags.Changed("path") {
		cfg.Path = c.path
	}
	if flags.Changed("disk") {
		cfg.Disk = c.disk
	}
	if flags.Changed("key-type") {
		cfg.KeyType = c.keyType
	}

	key, err := c.readWrapKey()
	if err != nil {
		return err
	}
	if key != nil {
		cfg.WrapKey = key.Bytes()
	} else if cfg.WrapKey != nil {
		key = system.NewSecret(cfg.WrapKey)
	}
	defer key.Wipe()

	if err := cfg.Validate(); err != nil {
		return err
	}

	deps := []string{"mount", "umount", "fdisk", "mkfs." + disk.Filesystem}
	if cfg.Encrypted() {
		deps = append(deps, "cryptsetup")
	}
	if err := c.ctx.Prepare(deps); err != nil {
		return err
	}

	prov := disk.NewProvisioner(c.ctx.Executor, c.ctx.Logger, c.layout, c.ctx.DryRun)
	if err := prov.Provision(cfg); err != nil {
		return err
	}

	c.ctx.Logger.Success("Mounted %s at %s", cfg.Disk, cfg.Path)
	return nil
}

// readWrapKey reads the wrap key from the source chosen by flags, or
// returns nil to keep the environment value.
func (c *DiskCommand) readWrapKey() (*system.Secret, error) {
	switch {
	case c.wrapkeyStdin:
		key, err := ui.ReadSecret("Enter wrap key")
		if err != nil {
			return nil, fmt.Errorf("failed to read wrap key: %w", err)
		}
		return key, nil

	case c.wrapkeyFile != "":
		path, err := system.ValidateKeyfilePath(c.wrapkeyFile)
		if err != nil {
			return nil, &config.InvalidError{Name: "wrapkey-file", Reason: err.Error()}
		}
		if insecure, mode, err := system.InsecurePermissions(path); err == nil && insecure {
			c.ctx.Logger.Warning("Key file %s has insecure permissions (%04o), consider chmod 600", path, mode)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read wrap key: %w", err)
		}
		return system.SecretFromLine(data), nil
	}
	return nil, nil
}
