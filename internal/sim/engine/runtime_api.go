package engine

// SetTickSink installs the channel TickLogEntry values are sent to. Sends
// happen under the engine lock, so the channel order is the ledger order.
func (e *Engine) SetTickSink(ch chan<- TickLogEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickSink = ch
}

// SetSnapshotSink installs the channel periodic snapshots are sent to. The
// receiver calls Build, which does the O(history) work off the engine lock.
func (e *Engine) SetSnapshotSink(ch chan<- PendingSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshotSink = ch
}

type EngineMetrics struct {
	Tick             uint64  `json:"tick"`
	Entities         int     `json:"entities"`
	HistoryRecords   uint64  `json:"history_records"`
	DroppedTickLogs  uint64  `json:"dropped_tick_logs"`
	DroppedSnapshots uint64  `json:"dropped_snapshots"`
	AdvanceMS        float64 `json:"advance_ms"`
}

func (e *Engine) Metrics() EngineMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EngineMetrics{
		Tick:             e.tick,
		Entities:         len(e.positions),
		HistoryRecords:   e.history.len(),
		DroppedTickLogs:  e.droppedTickLogs,
		DroppedSnapshots: e.droppedSnapshots,
		AdvanceMS:        float64(e.lastAdvance.Microseconds()) / 1000.0,
	}
}
