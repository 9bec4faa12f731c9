package firewall

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nace/cvmprep/internal/ui"
)

type recorder struct {
	cmds   []string
	inputs []string
	fail   map[string]bool
}

func (r *recorder) record(input []byte, name string, args []string) error {
	line := strings.Join(append([]string{name}, args...), " ")
	r.cmds = append(r.cmds, line)
	r.inputs = append(r.inputs, string(input))
	if r.fail[line] {
		return errors.New("exit status 1")
	}
	return nil
}

func (r *recorder) Run(name string, args ...string) error {
	return r.record(nil, name, args)
}

func (r *recorder) RunInput(input []byte, name string, args ...string) error {
	return r.record(input, name, args)
}

func (r *recorder) RunCombined(input []byte, name string, args ...string) (string, error) {
	return "", r.record(input, name, args)
}

func newConfigurator(fail ...string) (*Configurator, *recorder) {
	rec := &recorder{fail: map[string]bool{}}
	for _, f := range fail {
		rec.fail[f] = true
	}
	return NewConfigurator(rec, ui.NewLoggerTo(io.Discard, false, false, true)), rec
}

func TestParsePorts(t *testing.T) {
	tests := []struct {
		spec string
		want []PortRule
	}{
		{"", nil},
		{"22", []PortRule{{22, 22}}},
		{"22,8000:8010", []PortRule{{22, 22}, {8000, 8010}}},
		{" 22 , ,443,", []PortRule{{22, 22}, {443, 443}}},
		{"9000:9000", []PortRule{{9000, 9000}}},
	}
	for _, tc := range tests {
		t.Run(tc.spec, func(t *testing.T) {
			rules, err := ParsePorts(tc.spec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, rules)
		})
	}
}

func TestParsePortsInvalid(t *testing.T) {
	rules, err := ParsePorts("22,abc,0,70000,9000:8000,1:2:3,443")

	require.Error(t, err)
	assert.Equal(t, []PortRule{{22, 22}, {443, 443}}, rules)
	for _, token := range []string{"abc", `"0"`, "70000", "9000:8000", "1:2:3"} {
		assert.Contains(t, err.Error(), token)
	}
}

func TestPortRuleString(t *testing.T) {
	assert.Equal(t, "22", PortRule{22, 22}.String())
	assert.Equal(t, "8000:8010", PortRule{8000, 8010}.String())
}

func TestConfigureAllowsEachRule(t *testing.T) {
	c, rec := newConfigurator()
	rules, err := ParsePorts("22,8000:8010")
	require.NoError(t, err)

	results, err := c.Configure(rules)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"modprobe ip_tables",
		"ufw enable",
		"ufw allow 22/tcp",
		"ufw allow 8000:8010/tcp",
	}, rec.cmds)
	assert.Equal(t, "y\n", rec.inputs[1])
	assert.Equal(t, []Result{{Rule: "22/tcp"}, {Rule: "8000:8010/tcp"}}, results)
}

func TestConfigureWithoutPorts(t *testing.T) {
	c, rec := newConfigurator()

	results, err := c.Configure(nil)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, []string{"modprobe ip_tables", "ufw enable"}, rec.cmds)
}

func TestConfigureContinuesAfterFailedRule(t *testing.T) {
	c, rec := newConfigurator("ufw allow 22/tcp", "modprobe ip_tables")

	results, err := c.Configure([]PortRule{{22, 22}, {443, 443}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "22/tcp")
	assert.Equal(t, "ufw allow 443/tcp", rec.cmds[len(rec.cmds)-1])
	require.Len(t, results, 2)
	assert.NotEmpty(t, results[0].Error)
	assert.Empty(t, results[1].Error)
}

func TestConfigureContinuesWhenEnableFails(t *testing.T) {
	var logs bytes.Buffer
	rec := &recorder{fail: map[string]bool{"ufw enable": true}}
	c := NewConfigurator(rec, ui.NewLoggerTo(&logs, false, false, true))

	results, err := c.Configure([]PortRule{{22, 22}, {443, 443}})

	require.NoError(t, err)
	assert.Equal(t, []string{
		"modprobe ip_tables",
		"ufw enable",
		"ufw allow 22/tcp",
		"ufw allow 443/tcp",
	}, rec.cmds)
	assert.Equal(t, []Result{{Rule: "22/tcp"}, {Rule: "443/tcp"}}, results)
	assert.Contains(t, logs.String(), "[WARNING] failed to enable firewall")
}

func TestEnableReportsFailure(t *testing.T) {
	c, _ := newConfigurator("ufw enable")
	assert.Error(t, c.Enable())
}
