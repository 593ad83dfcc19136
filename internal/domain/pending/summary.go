package pending

import "time"

// Summary describes the pending requests at one point in time
type Summary struct {
	Total  int
	ByKind map[Kind]int
	// Oldest is the CreatedAt of the longest-waiting request, zero when empty
	Oldest    time.Time
	OldestKey string
	TakenAt   time.Time
}

// Summarize aggregates a store snapshot
func Summarize(reqs []*Request, now time.Time) Summary {
	s := Summary{
		Total:   len(reqs),
		ByKind:  map[Kind]int{KindChat: 0, KindTrading: 0},
		TakenAt: now,
	}
	for _, r := range reqs {
		s.ByKind[r.Kind]++
		if s.Oldest.IsZero() || r.CreatedAt.Before(s.Oldest) {
			s.Oldest = r.CreatedAt
			s.OldestKey = r.Key()
		}
	}
	return s
}

// OldestAge is how long the oldest request has been waiting
func (s Summary) OldestAge() time.Duration {
	if s.Oldest.IsZero() {
		return 0
	}
	return s.TakenAt.Sub(s.Oldest)
}
