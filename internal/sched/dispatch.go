package sched

// dispatcher holds the selection state of one policy. It picks the tier to
// dequeue from; the engine does the bookkeeping.
type dispatcher interface {
	// pick returns the tier whose head runs next, or -1 when every tier is
	// empty.
	pick(tiers []*tierQueue) int
}

func newDispatcher(p Policy) dispatcher {
	switch p {
	case PolicyTieredRR:
		return &tieredRR{}
	case PolicyMLFQ:
		return &feedback{cursor: 1}
	default:
		// FCFS and RR differ only in the quantum table.
		return singleTier{}
	}
}

type singleTier struct{}

func (singleTier) pick(tiers []*tierQueue) int {
	if tiers[0].empty() {
		return -1
	}
	return 0
}

// tieredRR keeps a sticky cursor over all tiers. Each call starts at the
// cursor, takes the first non-empty tier and leaves the cursor one past it.
type tieredRR struct {
	cursor int
}

func (d *tieredRR) pick(tiers []*tierQueue) int {
	k := len(tiers)
	for i := 0; i < k; i++ {
		t := (d.cursor + i) % k
		if !tiers[t].empty() {
			d.cursor = (t + 1) % k
			return t
		}
	}
	return -1
}

// feedback drains tier 0 first on every call. Below it, the cursor stays on
// a tier while it has work and flips to the next lower tier (wrapping back to
// tier 1) only when the indexed tier is empty. With three tiers this is a
// 1 <-> 2 ping-pong.
type feedback struct {
	cursor int
}

func (d *feedback) pick(tiers []*tierQueue) int {
	if !tiers[0].empty() {
		return 0
	}
	for i := 1; i < len(tiers); i++ {
		if !tiers[d.cursor].empty() {
			return d.cursor
		}
		d.cursor = d.flip(len(tiers))
	}
	return -1
}

func (d *feedback) flip(k int) int {
	if d.cursor >= k-1 {
		return 1
	}
	return d.cursor + 1
}
