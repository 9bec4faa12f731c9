package firewall

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// PortRule is one port or inclusive port range to allow. A single port
// has Start == End.
type PortRule struct {
	Start uint16 `json:"start"`
	End   uint16 `json:"end"`
}

// String renders the rule in ufw syntax without the protocol
func (r PortRule) String() string {
	if r.Start == r.End {
		return strconv.Itoa(int(r.Start))
	}
	return fmt.Sprintf("%d:%d", r.Start, r.End)
}

// ParsePorts parses a comma separated list of ports and start:end ranges.
// Empty tokens are skipped. Valid tokens are returned even when others
// fail to parse; the error lists every invalid token.
func ParsePorts(spec string) ([]PortRule, error) {
	var (
		rules  []PortRule
		result *multierror.Error
	)
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		rule, err := parseToken(token)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		rules = append(rules, rule)
	}
	return rules, result.ErrorOrNil()
}

func parseToken(token string) (PortRule, error) {
	if start, end, ok := strings.Cut(token, ":"); ok {
		s, err := parsePort(start)
		if err != nil {
			return PortRule{}, fmt.Errorf("invalid range %q: %w", token, err)
		}
		e, err := parsePort(end)
		if err != nil {
			return PortRule{}, fmt.Errorf("invalid range %q: %w", token, err)
		}
		if s > e {
			return PortRule{}, fmt.Errorf("invalid range %q: start is greater than end", token)
		}
		return PortRule{Start: s, End: e}, nil
	}

	p, err := parsePort(token)
	if err != nil {
		return PortRule{}, fmt.Errorf("invalid port %q: %w", token, err)
	}
	return PortRule{Start: p, End: p}, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("port must be a number between 1 and 65535")
	}
	return uint16(n), nil
}
