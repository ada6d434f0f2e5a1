package engine

import "sync"

type stageKey struct {
	PlanID string
	Stage  string
}

// StageTimings keeps per-plan pipeline stage durations for inspection over
// the API. Bounded in practice by plan count; cleared when a plan is
// deleted.
type StageTimings struct {
	mu    sync.Mutex
	store map[stageKey]int64
}

func NewStageTimings() *StageTimings {
	return &StageTimings{store: make(map[stageKey]int64)}
}

func (t *StageTimings) Record(planID, stage string, ms int64) {
	t.mu.Lock()
	t.store[stageKey{PlanID: planID, Stage: stage}] = ms
	t.mu.Unlock()
}

// Snapshot returns all recorded stage durations for one plan.
func (t *StageTimings) Snapshot(planID string) map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int64)
	for k, v := range t.store {
		if k.PlanID == planID {
			out[k.Stage] = v
		}
	}
	return out
}

// Forget drops all stage durations recorded for one plan.
func (t *StageTimings) Forget(planID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.store {
		if k.PlanID == planID {
			delete(t.store, k)
		}
	}
}
