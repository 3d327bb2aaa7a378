package client

import (
	"math"

	"github.com/ecosan/sanitrack/internal/domain"
)

// Stats summarizes the snapshot by status for the dashboard tiles.
type Stats struct {
	Total         int `json:"total"`
	Active        int `json:"active"`
	InProgress    int `json:"in_progress"`
	Expired       int `json:"expired"`
	ActivePercent int `json:"active_percent"`
}

// ComputeStats counts records per status. ActivePercent is rounded and is 0
// for an empty snapshot.
func ComputeStats(records []domain.Client) Stats {
	st := Stats{Total: len(records)}
	for _, c := range records {
		switch c.Status {
		case domain.StatusActive:
			st.Active++
		case domain.StatusInProgress:
			st.InProgress++
		case domain.StatusExpired:
			st.Expired++
		}
	}
	if st.Total > 0 {
		st.ActivePercent = int(math.Round(float64(st.Active) / float64(st.Total) * 100))
	}
	return st
}

// Stats summarizes the current snapshot.
func (s *Store) Stats() Stats {
	return ComputeStats(s.Snapshot())
}
