package engine

// TickRecord is one immutable ledger entry: the full position mapping right
// after tick Tick was applied, plus the input that produced it.
type TickRecord struct {
	Tick      uint64
	Entity    EntityID
	Input     Direction
	Positions map[EntityID]Vec2
}

func (r TickRecord) clone() TickRecord {
	r.Positions = copyPositions(r.Positions)
	return r
}

// ledger is append-only. Records are never mutated once appended and the
// slice is only dropped by clear.
type ledger struct {
	records []TickRecord
}

func (l *ledger) append(r TickRecord) { l.records = append(l.records, r) }

func (l *ledger) len() uint64 { return uint64(len(l.records)) }

func (l *ledger) at(index uint64) (TickRecord, bool) {
	if index >= uint64(len(l.records)) {
		return TickRecord{}, false
	}
	return l.records[index], true
}

// clear drops the backing array instead of truncating it; pending snapshots
// may still hold a view of the old records.
func (l *ledger) clear() { l.records = nil }

func copyPositions(m map[EntityID]Vec2) map[EntityID]Vec2 {
	out := make(map[EntityID]Vec2, len(m))
	for id, p := range m {
		out[id] = p
	}
	return out
}
