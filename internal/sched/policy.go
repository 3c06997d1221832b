package sched

import (
	"fmt"
	"strconv"
	"strings"

	yaml "github.com/goccy/go-yaml"
)

// Policy selects the dispatch discipline of an engine.
type Policy int

const (
	policyUnknown Policy = iota
	PolicyFCFS
	PolicyRR
	PolicyTieredRR
	PolicyMLFQ
)

// Policies lists every supported policy in presentation order.
var Policies = []Policy{PolicyFCFS, PolicyRR, PolicyTieredRR, PolicyMLFQ}

func (p Policy) String() string {
	switch p {
	case PolicyFCFS:
		return "fcfs"
	case PolicyRR:
		return "rr"
	case PolicyTieredRR:
		return "tiered-rr"
	case PolicyMLFQ:
		return "mlfq"
	default:
		return "unknown"
	}
}

// ParsePolicy accepts the canonical names plus a few common spellings.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fcfs", "fifo":
		return PolicyFCFS, nil
	case "rr", "round-robin":
		return PolicyRR, nil
	case "tiered-rr", "tieredrr", "multilevel-rr":
		return PolicyTieredRR, nil
	case "mlfq", "feedback":
		return PolicyMLFQ, nil
	default:
		return policyUnknown, fmt.Errorf("unknown policy %q", s)
	}
}

func (p *Policy) UnmarshalYAML(b []byte) error {
	var s string
	if err := yaml.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p Policy) MarshalYAML() (interface{}, error) { return p.String(), nil }

// Quantum is the number of ticks a dispatched task may run. Unlimited means
// run to completion.
type Quantum int64

const Unlimited Quantum = 0

func (q Quantum) IsUnlimited() bool { return q == Unlimited }

// Slice returns how many ticks a task with the given remaining work runs for
// under this quantum.
func (q Quantum) Slice(remaining int64) int64 {
	if q.IsUnlimited() || int64(q) > remaining {
		return remaining
	}
	return int64(q)
}

func (q Quantum) String() string {
	if q.IsUnlimited() {
		return "unlimited"
	}
	return strconv.FormatInt(int64(q), 10)
}

// UnmarshalYAML accepts either a tick count or the word "unlimited".
func (q *Quantum) UnmarshalYAML(b []byte) error {
	var v interface{}
	if err := yaml.Unmarshal(b, &v); err != nil {
		return err
	}
	switch n := v.(type) {
	case uint64:
		*q = Quantum(n)
	case int64:
		*q = Quantum(n)
	case int:
		*q = Quantum(n)
	case float64:
		if n != float64(int64(n)) {
			return fmt.Errorf("quantum %v is not a whole number of ticks", n)
		}
		*q = Quantum(n)
	case string:
		s := strings.ToLower(strings.TrimSpace(n))
		if s == "unlimited" || s == "inf" {
			*q = Unlimited
			return nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantum %q", n)
		}
		*q = Quantum(i)
	default:
		return fmt.Errorf("invalid quantum %v", v)
	}
	return nil
}

func (q Quantum) MarshalYAML() (interface{}, error) {
	if q.IsUnlimited() {
		return "unlimited", nil
	}
	return int64(q), nil
}
