package pool

// Stats is a snapshot of pool occupancy and activity counters.
type Stats struct {
	Frame          uint64
	FramesInFlight int

	Pages    int
	Capacity int
	Live     int // slots holding a batch
	Indexed  int // index entries; equals Live
	Pending  int // queued reclamation entries

	Inserts     uint64 // batches stored in a new slot
	DedupHits   uint64 // batches folded into an existing slot
	Reclaimed   uint64
	Resurrected uint64 // slots referenced again while pending reclamation
}

// DedupRate returns the fraction of AddBatch calls served by an existing
// slot, or 0 before any call.
func (s Stats) DedupRate() float64 {
	total := s.Inserts + s.DedupHits
	if total == 0 {
		return 0
	}
	return float64(s.DedupHits) / float64(total)
}

// Stats returns current statistics. Counts taken from different pages are
// not an atomic snapshot.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	pages := p.pages
	p.mu.RUnlock()

	s := Stats{
		Frame:          p.frame.Load(),
		FramesInFlight: int(p.framesInFlight),
		Pages:          len(pages),
		Capacity:       len(pages) * PageSize,
		Indexed:        p.index.len(),
		Inserts:        p.inserts.Load(),
		DedupHits:      p.dedupHits.Load(),
		Reclaimed:      p.reclaimed.Load(),
		Resurrected:    p.resurrected.Load(),
	}
	for _, pg := range pages {
		live, pending := pg.counts()
		s.Live += live
		s.Pending += pending
	}
	return s
}
