package disk

import (
	"fmt"

	"github.com/nace/cvmprep/internal/system"
)

// fdiskScript answers fdisk's prompts: new primary partition 1 spanning
// the default first and last sectors, then write the table.
const fdiskScript = "n\np\n1\n\n\nw\n"

// Partitioner writes partition tables
type Partitioner struct {
	executor system.Commander
}

// NewPartitioner creates a new partitioner
func NewPartitioner(executor system.Commander) *Partitioner {
	return &Partitioner{executor: executor}
}

// CreateSinglePartition creates one primary partition covering the disk
func (p *Partitioner) CreateSinglePartition(rawDevice string) error {
	err := p.executor.RunInput([]byte(fdiskScript), "fdisk", rawDevice)
	if err != nil {
		return fmt.Errorf("failed to partition %s: %w", rawDevice, err)
	}
	return nil
}
