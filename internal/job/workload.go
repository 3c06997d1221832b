package job

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"

	yaml "github.com/goccy/go-yaml"
)

// Job describes one simulated process: when it arrives, which tier it starts
// in and how many ticks of CPU it needs.
type Job struct {
	ID      uint64 `yaml:"id"`
	Name    string `yaml:"name,omitempty"`
	Tier    int    `yaml:"tier"`
	Arrival int64  `yaml:"arrival"`
	Burst   int64  `yaml:"burst"`
}

// Workload is the input of one simulation run.
type Workload struct {
	Name string `yaml:"name,omitempty"`
	Jobs []Job  `yaml:"jobs"`
}

var ErrEmptyWorkload = errors.New("workload has no jobs")

// LoadWorkload reads a workload YAML file.
func LoadWorkload(path string) (Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Workload{}, fmt.Errorf("read workload %s: %w", path, err)
	}
	w, err := ParseWorkload(data)
	if err != nil {
		return Workload{}, fmt.Errorf("workload %s: %w", path, err)
	}
	return w, nil
}

// ParseWorkload decodes and validates a workload. Jobs come back ordered by
// arrival, then ID.
func ParseWorkload(data []byte) (Workload, error) {
	var w Workload
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Workload{}, fmt.Errorf("decode workload: %w", err)
	}
	if err := w.Validate(); err != nil {
		return Workload{}, err
	}
	w.Sort()
	return w, nil
}

// Validate checks that jobs are well formed. Tiers are not checked here: the
// engine decides which tiers exist.
func (w Workload) Validate() error {
	if len(w.Jobs) == 0 {
		return ErrEmptyWorkload
	}
	seen := make(map[uint64]struct{}, len(w.Jobs))
	for i, j := range w.Jobs {
		if _, dup := seen[j.ID]; dup {
			return fmt.Errorf("job %d: duplicate id", j.ID)
		}
		seen[j.ID] = struct{}{}
		if j.Burst < 1 {
			return fmt.Errorf("job %d (#%d): burst must be at least 1 tick, got %d", j.ID, i, j.Burst)
		}
		if j.Arrival < 0 {
			return fmt.Errorf("job %d (#%d): negative arrival %d", j.ID, i, j.Arrival)
		}
	}
	return nil
}

// Sort orders jobs by arrival, then ID.
func (w *Workload) Sort() {
	sort.SliceStable(w.Jobs, func(a, b int) bool {
		ja, jb := w.Jobs[a], w.Jobs[b]
		if ja.Arrival != jb.Arrival {
			return ja.Arrival < jb.Arrival
		}
		return ja.ID < jb.ID
	})
}

// TotalBurst returns the CPU ticks the whole workload needs.
func (w Workload) TotalBurst() int64 {
	var n int64
	for _, j := range w.Jobs {
		n += j.Burst
	}
	return n
}

// Marshal encodes the workload as YAML.
func (w Workload) Marshal() ([]byte, error) {
	return yaml.Marshal(w)
}

// GenSpec parameterises Generate.
type GenSpec struct {
	Count      int
	Seed       int64
	Tiers      int
	MaxBurst   int64
	MaxArrival int64
}

// Generate builds a pseudo-random workload. The same GenSpec always yields the
// same jobs.
func Generate(spec GenSpec) (Workload, error) {
	if spec.Count < 1 {
		return Workload{}, ErrEmptyWorkload
	}
	if spec.Tiers < 1 {
		return Workload{}, fmt.Errorf("generate: tiers must be at least 1, got %d", spec.Tiers)
	}
	if spec.MaxBurst < 1 {
		return Workload{}, fmt.Errorf("generate: max burst must be at least 1, got %d", spec.MaxBurst)
	}
	if spec.MaxArrival < 0 || spec.MaxArrival == math.MaxInt64 {
		return Workload{}, fmt.Errorf("generate: max arrival must be in [0, %d], got %d", int64(math.MaxInt64-1), spec.MaxArrival)
	}

	rng := rand.New(rand.NewSource(spec.Seed))
	w := Workload{
		Name: fmt.Sprintf("generated-%d-seed-%d", spec.Count, spec.Seed),
		Jobs: make([]Job, spec.Count),
	}
	for i := range w.Jobs {
		w.Jobs[i] = Job{
			ID:      uint64(i + 1),
			Name:    fmt.Sprintf("job-%d", i+1),
			Tier:    rng.Intn(spec.Tiers),
			Arrival: rng.Int63n(spec.MaxArrival + 1),
			Burst:   1 + rng.Int63n(spec.MaxBurst),
		}
	}
	w.Sort()
	return w, nil
}

// ClampTiers returns a copy of w with every tier folded into [0, tiers-1],
// so one workload can be replayed against engines with fewer tiers.
func (w Workload) ClampTiers(tiers int) Workload {
	out := Workload{Name: w.Name, Jobs: make([]Job, len(w.Jobs))}
	copy(out.Jobs, w.Jobs)
	for i := range out.Jobs {
		if out.Jobs[i].Tier >= tiers {
			out.Jobs[i].Tier = tiers - 1
		}
		if out.Jobs[i].Tier < 0 {
			out.Jobs[i].Tier = 0
		}
	}
	return out
}
