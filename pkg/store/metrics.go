package store

// DBMetrics is a compact view of Pebble internals exported on /metrics.
type DBMetrics struct {
	DiskBytes     uint64
	WALBytes      uint64
	MemtableBytes uint64
}

// Metrics returns best-effort size metrics for the open database.
func (s *Store) Metrics() DBMetrics {
	var out DBMetrics
	if s == nil || s.db == nil {
		return out
	}
	m := s.db.Metrics()
	if m == nil {
		return out
	}
	out.DiskBytes = m.DiskSpaceUsage()
	out.WALBytes = m.WAL.Size
	out.MemtableBytes = m.MemTable.Size
	return out
}
