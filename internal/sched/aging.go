package sched

// Age advances the engine by one simulated tick.
//
// Every task waiting below tier 0 gets one tick older. Tasks that reached the
// aging threshold move up exactly one tier, restart at age zero and join the
// tail of their new tier; the tasks they leave behind keep their order. Tiers
// are swept top-down so a task climbs at most one tier per call.
//
// Age is a no-op on engines without an aging threshold. It returns the number
// of promoted tasks.
func (e *Engine) Age() int {
	threshold := e.cfg.AgingThreshold
	if threshold <= 0 {
		return 0
	}

	for tier := 1; tier < len(e.tiers); tier++ {
		e.tiers[tier].each(func(t *Task) { t.age++ })
	}

	promoted := 0
	for tier := 1; tier < len(e.tiers); tier++ {
		ready := e.tiers[tier].extract(func(t *Task) bool { return t.age >= threshold })
		for _, t := range ready {
			e.waiting--
			e.enqueue(t, tier-1)
			t.promotions++
			e.observer.OnPromote(t, tier, tier-1)
			promoted++
		}
	}
	return promoted
}
