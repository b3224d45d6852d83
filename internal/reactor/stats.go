package reactor

// CycleStats reports what happened during a single stimulus cycle: the
// assert/alert that triggered it, the cascade of cell re-evaluations it
// produced, and the actions the rule scheduler fired as a result. It is
// returned from every Engine.Tick (Scheduler.React) call instead of
// only being logged, so callers can assert on it directly; Engine.Assert
// returns nothing.
type CycleStats struct {
	// CellsEvaluated is the number of cells the graph recomputed while
	// draining this cycle.
	CellsEvaluated int
	// ActionsFired is the number of rule actions executed during this
	// cycle's action queue drain.
	ActionsFired int
	// TimersArmed and TimersFired hold wall-clock timer counts for
	// callers that fill them in; Scheduler.React leaves both at zero.
	TimersArmed int
	TimersFired int
}

// Add accumulates other into s, for callers that run several internal
// sub-cycles (e.g. assert followed by the resulting action firings) and
// want to report one combined CycleStats to their caller.
func (s *CycleStats) Add(other CycleStats) {
	s.CellsEvaluated += other.CellsEvaluated
	s.ActionsFired += other.ActionsFired
	s.TimersArmed += other.TimersArmed
	s.TimersFired += other.TimersFired
}
