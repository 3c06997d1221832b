package job

// Burst tracks the CPU work a simulated job still needs. It stands in for the
// work function a real runner would execute: running it for a slice consumes
// ticks until nothing is left.
type Burst struct {
	total     int64
	remaining int64
}

// NewBurst returns the work for a job that needs ticks of CPU time.
func NewBurst(ticks int64) *Burst {
	if ticks < 0 {
		ticks = 0
	}
	return &Burst{total: ticks, remaining: ticks}
}

// Run consumes up to slice ticks and reports how many were used and whether
// the job is finished.
func (b *Burst) Run(slice int64) (ran int64, done bool) {
	ran = min(slice, b.remaining)
	if ran < 0 {
		ran = 0
	}
	b.remaining -= ran
	return ran, b.remaining == 0
}

func (b *Burst) Remaining() int64 { return b.remaining }
func (b *Burst) Total() int64 { return b.total }
