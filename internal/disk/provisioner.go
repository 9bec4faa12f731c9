// Package disk mounts a data disk, partitioning, formatting and
// optionally LUKS-encrypting it the first time it is seen.
package disk

import (
	"fmt"
	"strings"

	"github.com/nace/cvmprep/internal/config"
	"github.com/nace/cvmprep/internal/system"
	"github.com/nace/cvmprep/internal/ui"
)

// Provisioner leaves a disk mounted at a path
type Provisioner struct {
	LUKS        *LUKSManager
	Mounts      *MountManager
	Partitioner *Partitioner

	layout Layout
	logger *ui.Logger
	dryRun bool
}

// NewProvisioner creates a provisioner running commands through executor
func NewProvisioner(executor system.Commander, logger *ui.Logger, layout Layout, dryRun bool) *Provisioner {
	return &Provisioner{
		LUKS:        NewLUKSManager(executor),
		Mounts:      NewMountManager(executor, layout.MountTable),
		Partitioner: NewPartitioner(executor),
		layout:      layout,
		logger:      logger,
		dryRun:      dryRun,
	}
}

// Provision mounts the disk described by cfg. Each external command is
// attempted once; nothing done to the disk is rolled back.
func (p *Provisioner) Provision(cfg *config.DiskConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	dev := p.layout.Device(cfg.Disk)
	p.logger.Info("Mount directory is %s", cfg.Path)
	if cfg.Encrypted() {
		return p.provisionEncrypted(dev, cfg.Path, cfg.WrapKey)
	}
	return p.provisionPlain(dev, cfg.Path)
}

func (p *Provisioner) provisionPlain(dev Device, path string) error {
	created, err := p.ensureDir(path)
	if err != nil {
		return err
	}
	if !created {
		p.releaseMountPoint(path)
	}

	if !system.PathExists(dev.Partition) {
		p.logger.Info("%s has no partition, initializing %s", dev.Raw, dev.Partition)
		p.partition(dev)
		if err := p.Mounts.MakeFilesystem(dev.Partition); err != nil {
			p.logger.Warning("%v", err)
		}
	}

	p.logger.Info("Mounting %s...", dev.Partition)
	if err := p.Mounts.Mount(dev.Partition, path); err != nil {
		return &MountError{Device: dev.Partition, MountPoint: path, Err: err}
	}

	p.reportContents(path)
	return nil
}

func (p *Provisioner) provisionEncrypted(dev Device, path string, key []byte) error {
	if _, err := p.ensureDir(path); err != nil {
		return err
	}

	state, output := p.Probe(dev, path, key)
	p.logger.Debug("%s state: %s", dev.Partition, state)

	switch state {
	case StateAlreadyMounted:
		p.logger.Success("%s is already open and mounted", dev.Partition)
		return nil
	case StateMapped:
		p.logger.Info("%s is open but not mounted at %s", dev.MapperPath, path)
	case StateNotLUKS:
		p.logger.Info("%s is not a LUKS device, encrypting it", dev.Partition)
		p.initContainer(dev, key)
	case StateDeviceMissing:
		p.logger.Info("%s does not exist, encrypting a new disk %s", dev.Partition, dev.Raw)
		p.partition(dev)
		p.initContainer(dev, key)
	case StateWrongKey:
		return &AuthError{Device: dev.Partition}
	case StateUnlockable:
		p.logger.Debug("Wrap key unlocks %s", dev.Partition)
	default:
		return &UnknownError{Device: dev.Partition, Output: strings.TrimSpace(output)}
	}

	opened := state != StateMapped
	if opened {
		p.logger.Info("Opening LUKS container as %s...", dev.MapperName)
		if err := p.LUKS.Open(dev.Partition, dev.MapperName, key); err != nil {
			return &OpenError{Device: dev.Partition, Mapper: dev.MapperName, Err: err}
		}
	}

	p.logger.Info("Mounting %s...", dev.MapperPath)
	if err := p.Mounts.Mount(dev.MapperPath, path); err != nil {
		// Leave no mapper of ours behind, so the next run does not take
		// the disk for already mounted.
		if opened {
			if cerr := p.LUKS.Close(dev.MapperName); cerr != nil {
				p.logger.Warning("%v", cerr)
			}
		}
		return &MountError{Device: dev.MapperPath, MountPoint: path, Err: err}
	}

	p.reportContents(path)
	return nil
}

// Probe classifies the disk. Explicit checks on the host come first;
// the output of a trial luksOpen is parsed only when they are inconclusive.
// The returned string is that output, if any.
func (p *Provisioner) Probe(dev Device, path string, key []byte) (DeviceState, string) {
	if system.PathExists(dev.MapperPath) {
		mounted, err := p.Mounts.MountedAt(dev.MapperPath, path)
		if err != nil {
			p.logger.Debug("Cannot read mount table, taking %s as mounted: %v", dev.MapperPath, err)
			return StateAlreadyMounted, ""
		}
		if !mounted {
			return StateMapped, ""
		}
		return StateAlreadyMounted, ""
	}
	if !system.PathExists(dev.Partition) {
		return StateDeviceMissing, ""
	}

	// A partition is only formatted on a definite "no header" answer;
	// when isLuks itself fails the trial open below decides.
	hasHeader, err := p.LUKS.IsLUKS(dev.Partition)
	if err != nil {
		p.logger.Debug("%v", err)
	} else if !hasHeader {
		return StateNotLUKS, ""
	}

	if system.PathExists(p.layout.MapperPath(ProbeMapperName)) {
		p.logger.Debug("Closing stale probe mapper %s", ProbeMapperName)
		if err := p.LUKS.Close(ProbeMapperName); err != nil {
			p.logger.Warning("%v", err)
		}
	}

	output, err := p.LUKS.TryOpen(dev.Partition, ProbeMapperName, key)
	if err != nil {
		p.logger.Debug("luksOpen output: %s", strings.TrimSpace(output))
		return ClassifyOpenOutput(output), output
	}
	if err := p.LUKS.Close(ProbeMapperName); err != nil {
		p.logger.Warning("%v", err)
	}
	return StateUnlockable, output
}

// initContainer formats the partition as LUKS and creates a filesystem
// inside. Failures are logged; the following open decides the outcome.
func (p *Provisioner) initContainer(dev Device, key []byte) {
	cleanup := system.NewCleanupStack()
	defer func() {
		if err := cleanup.Execute(); err != nil {
			p.logger.Warning("Cleanup errors occurred: %v", err)
		}
	}()

	p.logger.Info("Formatting %s as LUKS...", dev.Partition)
	if err := p.LUKS.Format(dev.Partition, key); err != nil {
		p.logger.Warning("%v", err)
	}

	if err := p.LUKS.Open(dev.Partition, dev.MapperName, key); err != nil {
		p.logger.Warning("%v", err)
		return
	}
	cleanup.Add(func() error {
		return p.LUKS.Close(dev.MapperName)
	})

	p.logger.Info("Creating %s filesystem on %s...", Filesystem, dev.MapperPath)
	if err := p.Mounts.MakeFilesystem(dev.MapperPath); err != nil {
		p.logger.Warning("%v", err)
	}
}

func (p *Provisioner) partition(dev Device) {
	p.logger.Info("Partitioning %s...", dev.Raw)
	if err := p.Partitioner.CreateSinglePartition(dev.Raw); err != nil {
		p.logger.Warning("%v", err)
	}
}

// releaseMountPoint unmounts whatever is mounted at path
func (p *Provisioner) releaseMountPoint(path string) {
	mounted, err := p.Mounts.IsMountPoint(path)
	if err != nil {
		p.logger.Debug("Cannot read mount table, unmounting %s anyway: %v", path, err)
		mounted = true
	}
	if !mounted {
		return
	}
	p.logger.Info("Unmounting previous mount at %s...", path)
	if err := p.Mounts.Unmount(path); err != nil {
		p.logger.Warning("%v", err)
	}
}

func (p *Provisioner) ensureDir(path string) (bool, error) {
	if p.dryRun {
		p.logger.Info("[DRY RUN] mkdir -p %s", path)
		return !system.PathExists(path), nil
	}
	created, err := system.EnsureDir(path)
	if err != nil {
		return false, &config.InvalidError{Name: config.EnvPath, Reason: err.Error()}
	}
	if created {
		p.logger.Debug("Created mount directory %s", path)
	}
	return created, nil
}

// reportContents lists the mounted directory as a success signal
func (p *Provisioner) reportContents(path string) {
	if p.dryRun {
		return
	}
	names, err := system.ListDir(path)
	if err != nil {
		p.logger.Warning("%v", err)
		return
	}
	p.logger.Info("Contents of %s: %s", path, fmt.Sprint(names))
}
