package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ticksched/internal/job"
	"ticksched/internal/sched"
	"ticksched/internal/sim"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleRun(t *testing.T, policy sched.Policy, at time.Time) *Run {
	t.Helper()
	w := job.Workload{Name: "sample", Jobs: []job.Job{
		{ID: 1, Name: "a", Burst: 5},
		{ID: 2, Name: "b", Arrival: 2, Burst: 3},
	}}
	s, err := sim.New(sched.Preset(policy), w, sim.Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r, err := NewRun(report, at)
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	return r
}

func TestSQLiteStore_SaveAndGetRun(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	r := sampleRun(t, sched.PolicyRR, time.Now().UTC().Truncate(time.Millisecond))
	if !strings.HasPrefix(r.ID, "run_") {
		t.Errorf("ID = %q, want run_ prefix", r.ID)
	}
	if err := st.SaveRun(ctx, r); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := st.GetRun(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil {
		t.Fatal("GetRun returned nil")
	}
	if !got.CreatedAt.Equal(r.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, r.CreatedAt)
	}
	got.CreatedAt = r.CreatedAt
	if !reflect.DeepEqual(got, r) {
		t.Errorf("mismatch:\n  got:  %+v\n  want: %+v", got, r)
	}
	if !strings.Contains(got.Config, "policy: rr") {
		t.Errorf("config not stored as YAML: %q", got.Config)
	}
}

func TestSQLiteStore_GetRunNotFound(t *testing.T) {
	st := testStore(t)

	got, err := st.GetRun(context.Background(), "run_missing")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var saved []*Run
	for i, p := range sched.Policies {
		r := sampleRun(t, p, base.Add(time.Duration(i)*time.Minute))
		if err := st.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun(%s): %v", p, err)
		}
		saved = append(saved, r)
	}

	all, err := st.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != len(saved) {
		t.Fatalf("got %d runs, want %d", len(all), len(saved))
	}
	if all[0].ID != saved[len(saved)-1].ID {
		t.Errorf("newest run not first: got %s", all[0].Policy)
	}
	for _, r := range all {
		if r.Tasks != nil {
			t.Errorf("ListRuns loaded tasks for %s", r.ID)
		}
	}

	two, err := st.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns(2): %v", err)
	}
	if len(two) != 2 {
		t.Errorf("limit ignored: got %d runs", len(two))
	}
}

func TestSQLiteStore_DeleteRun(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	r := sampleRun(t, sched.PolicyFCFS, time.Now())
	if err := st.SaveRun(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := st.DeleteRun(ctx, r.ID); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if got, _ := st.GetRun(ctx, r.ID); got != nil {
		t.Error("run still present after delete")
	}

	var n int
	if err := st.db.QueryRow(`SELECT COUNT(*) FROM task_stats WHERE run_id = ?`, r.ID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("%d task rows survived the delete", n)
	}
}

func TestSQLiteStore_DeleteRunNotFound(t *testing.T) {
	st := testStore(t)

	err := st.DeleteRun(context.Background(), "run_missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("error mismatch:\n  got:  %v\n  want: %v", err, ErrRunNotFound)
	}
}

func TestSQLiteStore_CorruptCreatedAt(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	r := sampleRun(t, sched.PolicyRR, time.Now())
	if err := st.SaveRun(ctx, r); err != nil {
		t.Fatal(err)
	}
	if _, err := st.db.Exec(`UPDATE runs SET created_at = 'yesterday' WHERE id = ?`, r.ID); err != nil {
		t.Fatal(err)
	}

	if got, err := st.GetRun(ctx, r.ID); err == nil {
		t.Errorf("GetRun returned %+v for an unreadable created_at", got)
	}
	if _, err := st.ListRuns(ctx, 0); err == nil || !strings.Contains(err.Error(), "created_at") {
		t.Errorf("ListRuns error mismatch:\n  got:  %v\n  want: created_at parse error", err)
	}
}
