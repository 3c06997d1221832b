package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ticksched/internal/job"
	"ticksched/internal/store"
)

const testWorkload = `
name: pair
jobs:
  - id: 1
    name: long
    tier: 0
    arrival: 0
    burst: 3
  - id: 2
    name: short
    tier: 0
    arrival: 1
    burst: 2
`

// execute runs the root command with args and returns stdout. The CLI keeps
// its logger in a package variable, so these tests do not run in parallel.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// field returns the value printed next to label in a report table.
func field(out, label string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, label+" ") {
			return strings.TrimSpace(strings.TrimPrefix(line, label))
		}
	}
	return ""
}

func TestRun_PolicyPreset(t *testing.T) {
	wl := writeFile(t, "jobs.yml", testWorkload)

	out, err := execute(t, "run", "--policy", "fcfs", "--workload", wl)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "policy fcfs") {
		t.Errorf("missing policy header:\n%s", out)
	}
	checks := map[string]string{
		"ticks":      "5",
		"completed":  "2",
		"dispatches": "2",
		"idle ticks": "0",
	}
	for label, want := range checks {
		if got := field(out, label); got != want {
			t.Errorf("%s mismatch:\n  got:  %q\n  want: %q", label, got, want)
		}
	}
	if !strings.Contains(out, "short") || !strings.Contains(out, "TURNAROUND") {
		t.Errorf("missing task table:\n%s", out)
	}
}

func TestRun_ConfigFile(t *testing.T) {
	cfg := writeFile(t, "config.yml", "policy: rr\nbase_quantum: 1\n")
	wl := writeFile(t, "jobs.yml", testWorkload)

	out, err := execute(t, "run", "--config", cfg, "--workload", wl, "--tasks=false")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "policy rr") {
		t.Errorf("missing policy header:\n%s", out)
	}
	if got := field(out, "dispatches"); got != "5" {
		t.Errorf("dispatches mismatch:\n  got:  %q\n  want: %q", got, "5")
	}
	if strings.Contains(out, "TURNAROUND") {
		t.Errorf("task table printed with --tasks=false:\n%s", out)
	}
}

func TestRun_FlagErrors(t *testing.T) {
	wl := writeFile(t, "jobs.yml", testWorkload)
	badCfg := writeFile(t, "bad.yml", "policy: fcfs\ntier_count: 2\n")

	tests := map[string]struct {
		args []string
		want string
	}{
		"config and policy": {
			args: []string{"run", "--config", badCfg, "--policy", "rr", "--workload", wl},
			want: "either --config or --policy",
		},
		"workload and generate": {
			args: []string{"run", "--policy", "rr", "--workload", wl, "--generate", "3"},
			want: "either --workload or --generate",
		},
		"no workload": {
			args: []string{"run", "--policy", "rr"},
			want: "no workload",
		},
		"unknown policy": {
			args: []string{"run", "--policy", "lottery", "--workload", wl},
			want: "lottery",
		},
		"invalid config": {
			args: []string{"run", "--config", badCfg, "--workload", wl},
			want: "tier_count",
		},
		"watch without files": {
			args: []string{"run", "--policy", "rr", "--generate", "3", "--watch"},
			want: "--watch needs",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error mismatch:\n  got:  %v\n  want: contains %q", err, tc.want)
			}
		})
	}
}

func TestRun_CSV(t *testing.T) {
	wl := writeFile(t, "jobs.yml", testWorkload)
	csvPath := filepath.Join(t.TempDir(), "events.csv")

	if _, err := execute(t, "run", "--policy", "fcfs", "--workload", wl, "--csv", csvPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "tick,event,task_id,tier,quantum,ran_ticks" {
		t.Errorf("header mismatch: %q", lines[0])
	}
	if len(lines) < 5 {
		t.Errorf("expected at least 4 events, got %d lines", len(lines))
	}
}

func TestHistory(t *testing.T) {
	wl := writeFile(t, "jobs.yml", testWorkload)
	db := filepath.Join(t.TempDir(), "history.db")

	if _, err := execute(t, "run", "--policy", "rr", "--workload", wl, "--history", db); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, err := execute(t, "history", "list", "--db", db)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var id string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "run_") {
			id = strings.Fields(line)[0]
		}
	}
	if id == "" {
		t.Fatalf("no run listed:\n%s", out)
	}
	if !strings.Contains(out, "pair") {
		t.Errorf("workload name missing from list:\n%s", out)
	}

	out, err = execute(t, "history", "show", id, "--db", db)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	for _, want := range []string{id, "rr", "config:", "short"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, "history", "rm", id, "--db", db); err != nil {
		t.Fatalf("history rm: %v", err)
	}
	if _, err := execute(t, "history", "show", id, "--db", db); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found after rm, got %v", err)
	}
	if _, err := execute(t, "history", "rm", id, "--db", db); !errors.Is(err, store.ErrRunNotFound) {
		t.Errorf("second rm error mismatch:\n  got:  %v\n  want: %v", err, store.ErrRunNotFound)
	}
}

func TestCompare(t *testing.T) {
	out, err := execute(t, "compare", "--generate", "8", "--seed", "4")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	for _, p := range []string{"fcfs", "rr", "tiered-rr", "mlfq"} {
		found := false
		for _, line := range strings.Split(out, "\n") {
			if f := strings.Fields(line); len(f) > 0 && f[0] == p {
				found = true
			}
		}
		if !found {
			t.Errorf("no row for %s:\n%s", p, out)
		}
	}
}

func TestWorkloadGen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.yml")

	if _, err := execute(t, "workload", "gen", "--count", "6", "--seed", "9", "--tiers", "2", "-o", path); err != nil {
		t.Fatalf("workload gen: %v", err)
	}
	w, err := job.LoadWorkload(path)
	if err != nil {
		t.Fatalf("load generated workload: %v", err)
	}
	if len(w.Jobs) != 6 {
		t.Fatalf("job count mismatch:\n  got:  %d\n  want: 6", len(w.Jobs))
	}
	for _, j := range w.Jobs {
		if j.Tier < 0 || j.Tier > 1 {
			t.Errorf("job %d tier %d outside [0, 1]", j.ID, j.Tier)
		}
	}

	stdout, err := execute(t, "workload", "gen", "--count", "6", "--seed", "9", "--tiers", "2")
	if err != nil {
		t.Fatalf("workload gen to stdout: %v", err)
	}
	fromFile, _ := os.ReadFile(path)
	if stdout != string(fromFile) {
		t.Errorf("same seed produced different output:\n%s\n---\n%s", stdout, fromFile)
	}

	out, err := execute(t, "workload", "check", path)
	if err != nil {
		t.Fatalf("workload check: %v", err)
	}
	if !strings.Contains(out, "6 jobs") {
		t.Errorf("check output mismatch: %q", out)
	}
}
