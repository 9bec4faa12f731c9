package cli

import (
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/nace/cvmprep/internal/config"
	"github.com/nace/cvmprep/internal/firewall"
	"github.com/nace/cvmprep/internal/ui"
)

// FirewallCommand enables the firewall and opens the configured ports
type FirewallCommand struct {
	Options GlobalOptions

	ctx        *GlobalContext
	allowPorts string
	json       bool

	lookup config.LookupFunc
}

// NewFirewallCommand creates the setfirewall root command
func NewFirewallCommand() (*cobra.Command, *GlobalOptions) {
	return newFirewallCommand(os.LookupEnv)
}

func newFirewallCommand(lookup config.LookupFunc) (*cobra.Command, *GlobalOptions) {
	c := &FirewallCommand{lookup: lookup}

	cobraCmd := &cobra.Command{
		Use:   "setfirewall",
		Short: "Enable the firewall and allow TCP ports",
		Long: `setfirewall enables ufw and opens every port or start:end range of
the comma separated allowPorts list for TCP.

Rules are applied one by one; a failing rule does not stop the others.`,
		Args:    cobra.NoArgs,
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.ctx = NewGlobalContext(c.Options)
		},
		RunE: c.Run,
	}

	c.Options.Register(cobraCmd.PersistentFlags())
	cobraCmd.Flags().StringVar(&c.allowPorts, "allow-ports", "", "Ports and ranges to allow, e.g. 22,8000:8010 (env: allowPorts)")
	cobraCmd.Flags().BoolVarP(&c.json, "json", "j", false, "JSON output")

	return cobraCmd, &c.Options
}

// Run executes the firewall configuration
func (c *FirewallCommand) Run(cmd *cobra.Command, args []string) error {
	cfg := config.LoadFirewall(c.lookup)
	if cmd.Flags().Changed("allow-ports") {
		cfg.AllowPorts = c.allowPorts
	}

	var result *multierror.Error
	rules, err := firewall.ParsePorts(cfg.AllowPorts)
	if err != nil {
		c.ctx.Logger.Error("Skipping invalid ports: %v", err)
		result = multierror.Append(result, err)
	}

	if err := c.ctx.Prepare([]string{"modprobe", "ufw"}); err != nil {
		return err
	}

	if len(rules) > 0 {
		c.ctx.Logger.Info("Allow ports %s", cfg.AllowPorts)
	}
	results, err := firewall.NewConfigurator(c.ctx.Executor, c.ctx.Logger).Configure(rules)
	if err != nil {
		result = multierror.Append(result, err)
	}

	if err := c.print(cmd, results); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (c *FirewallCommand) print(cmd *cobra.Command, results []firewall.Result) error {
	out := cmd.OutOrStdout()
	if c.json {
		if results == nil {
			results = []firewall.Result{}
		}
		return ui.PrintJSON(out, results)
	}

	table := ui.NewTable("RULE", "STATUS")
	for _, r := range results {
		status := "allowed"
		if r.Error != "" {
			status = "failed"
		}
		table.AddRow(r.Rule, status)
	}
	table.Print(out)
	return nil
}
