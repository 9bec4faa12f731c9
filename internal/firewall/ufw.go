// Package firewall enables ufw and opens TCP allow-rules.
package firewall

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/nace/cvmprep/internal/system"
	"github.com/nace/cvmprep/internal/ui"
)

// Protocol of every allow-rule
const Protocol = "tcp"

// Result records the outcome of one allow-rule
type Result struct {
	Rule  string `json:"rule"`
	Error string `json:"error,omitempty"`
}

// Configurator drives ufw
type Configurator struct {
	executor system.Commander
	logger   *ui.Logger
}

// NewConfigurator creates a new firewall configurator
func NewConfigurator(executor system.Commander, logger *ui.Logger) *Configurator {
	return &Configurator{
		executor: executor,
		logger:   logger,
	}
}

// Enable loads the iptables module and turns the firewall on
func (c *Configurator) Enable() error {
	if err := c.executor.Run("modprobe", "ip_tables"); err != nil {
		c.logger.Warning("failed to load ip_tables module: %v", err)
	}
	// ufw asks for confirmation that ssh connections may be disrupted
	if err := c.executor.RunInput([]byte("y\n"), "ufw", "enable"); err != nil {
		return fmt.Errorf("failed to enable firewall: %w", err)
	}
	return nil
}

// Allow opens one port or range for TCP
func (c *Configurator) Allow(rule PortRule) error {
	spec := rule.String() + "/" + Protocol
	if err := c.executor.Run("ufw", "allow", spec); err != nil {
		return fmt.Errorf("failed to allow %s: %w", spec, err)
	}
	return nil
}

// Configure enables the firewall and applies every rule. ufw accepts
// rules while inactive, so a failed enable is only a warning. Rules are
// independent: a failing rule does not stop the others and nothing is
// rolled back.
func (c *Configurator) Configure(rules []PortRule) ([]Result, error) {
	if err := c.Enable(); err != nil {
		c.logger.Warning("%v", err)
	}

	if len(rules) == 0 {
		c.logger.Info("No ports to allow, skipping")
		return nil, nil
	}

	var result *multierror.Error
	results := make([]Result, 0, len(rules))
	for _, rule := range rules {
		r := Result{Rule: rule.String() + "/" + Protocol}
		c.logger.Debug("Allowing %s", r.Rule)
		if err := c.Allow(rule); err != nil {
			r.Error = err.Error()
			result = multierror.Append(result, err)
		}
		results = append(results, r)
	}
	return results, result.ErrorOrNil()
}
