package sched

import (
	"fmt"
	"os"
	"slices"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors the engine section of config.yml.
type Config struct {
	Policy         Policy    `yaml:"policy"`
	TierCount      int       `yaml:"tier_count"`
	Quanta         []Quantum `yaml:"quanta,omitempty"` // derived from BaseQuantum when empty
	BaseQuantum    int64     `yaml:"base_quantum"`
	AgingThreshold int64     `yaml:"aging_threshold"` // 0 disables aging
}

// Preset returns the reference configuration of a policy.
func Preset(p Policy) Config {
	switch p {
	case PolicyFCFS:
		return Config{Policy: p, TierCount: 1}
	case PolicyRR:
		return Config{Policy: p, TierCount: 1, BaseQuantum: 4}
	case PolicyTieredRR:
		return Config{Policy: p, TierCount: 4, BaseQuantum: 4}
	case PolicyMLFQ:
		return Config{Policy: p, TierCount: 3, BaseQuantum: 4, AgingThreshold: 1000}
	default:
		return Config{Policy: p}
	}
}

// DefaultConfig is used when no config file is given.
func DefaultConfig() Config { return Preset(PolicyMLFQ) }

// Load reads YAML and overrides the preset of the policy it names; an empty
// path returns the defaults only.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML engine config. Keys that are absent keep the preset of
// the selected policy (MLFQ when no policy is named). Malformed YAML is a
// *ConfigurationError too.
func Parse(data []byte) (Config, error) {
	var head struct {
		Policy Policy `yaml:"policy"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Config{}, configErr("policy", "%v", err)
	}

	cfg := DefaultConfig()
	if head.Policy != policyUnknown {
		cfg = Preset(head.Policy)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, configErr("yaml", "%v", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first inconsistency in c as a *ConfigurationError.
func (c Config) Validate() error {
	_, err := c.normalize()
	return err
}

// QuantumFor returns the slice granted to tasks dispatched from tier.
func (c Config) QuantumFor(tier int) Quantum {
	n, err := c.normalize()
	if err != nil || tier < 0 || tier >= len(n.Quanta) {
		return Unlimited
	}
	return n.Quanta[tier]
}

// normalize fills a derived quantum table and validates the result. The
// returned config owns its Quanta slice.
func (c Config) normalize() (Config, error) {
	switch c.Policy {
	case PolicyFCFS, PolicyRR, PolicyTieredRR, PolicyMLFQ:
	default:
		return c, configErr("policy", "unknown policy %d", int(c.Policy))
	}
	if c.TierCount < 1 {
		return c, configErr("tier_count", "must be at least 1, got %d", c.TierCount)
	}
	if (c.Policy == PolicyFCFS || c.Policy == PolicyRR) && c.TierCount != 1 {
		return c, configErr("tier_count", "%s uses a single tier, got %d", c.Policy, c.TierCount)
	}
	if c.Policy == PolicyMLFQ && c.TierCount < 2 {
		return c, configErr("tier_count", "mlfq needs at least 2 tiers, got %d", c.TierCount)
	}
	if c.AgingThreshold < 0 {
		return c, configErr("aging_threshold", "must not be negative, got %d", c.AgingThreshold)
	}
	if c.AgingThreshold > 0 && c.Policy != PolicyMLFQ {
		return c, configErr("aging_threshold", "%s does not support aging", c.Policy)
	}
	if c.BaseQuantum < 0 {
		return c, configErr("base_quantum", "must not be negative, got %d", c.BaseQuantum)
	}

	if len(c.Quanta) == 0 {
		if c.Policy != PolicyFCFS && c.BaseQuantum < 1 {
			return c, configErr("base_quantum", "%s needs quanta or a positive base quantum", c.Policy)
		}
		c.Quanta = deriveQuanta(c.Policy, c.TierCount, c.BaseQuantum)
	} else {
		c.Quanta = slices.Clone(c.Quanta)
	}

	if len(c.Quanta) != c.TierCount {
		return c, configErr("quanta", "has %d entries for %d tiers", len(c.Quanta), c.TierCount)
	}
	for t, q := range c.Quanta {
		if q < 0 {
			return c, configErr("quanta", "tier %d has negative quantum %d", t, q)
		}
	}
	switch c.Policy {
	case PolicyFCFS:
		if !c.Quanta[0].IsUnlimited() {
			return c, configErr("quanta", "fcfs runs to completion, got quantum %s", c.Quanta[0])
		}
	case PolicyRR:
		if c.Quanta[0].IsUnlimited() {
			return c, configErr("quanta", "rr needs a limited quantum")
		}
	}
	return c, nil
}

// deriveQuanta builds the reference quantum table of a policy.
//
//	fcfs      unlimited
//	rr        base
//	tiered-rr max(1, base-t)
//	mlfq      unlimited, then a quarter of the slice above per lower tier (min 1)
func deriveQuanta(p Policy, tiers int, base int64) []Quantum {
	out := make([]Quantum, tiers)
	for t := range out {
		switch p {
		case PolicyFCFS:
			out[t] = Unlimited
		case PolicyRR:
			out[t] = Quantum(base)
		case PolicyTieredRR:
			out[t] = Quantum(max(1, base-int64(t)))
		case PolicyMLFQ:
			if t == 0 {
				out[t] = Unlimited
				continue
			}
			q := base
			for i := 1; i < t; i++ {
				q /= 4
			}
			out[t] = Quantum(max(1, q))
		}
	}
	return out
}
