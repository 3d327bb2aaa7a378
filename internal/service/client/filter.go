package client

import (
	"strings"

	"github.com/ecosan/sanitrack/internal/domain"
)

// StatusFilterAll is the sentinel status value that matches every record.
const StatusFilterAll = "all"

// FilterRecords applies the list-view filters over a snapshot: a
// case-insensitive substring match on name or email, and an exact
// case-insensitive status match. The two compose with AND. An empty search
// term and the "all" sentinel each match everything. Pure; the input slice
// is not modified.
func FilterRecords(records []domain.Client, search, status string) []domain.Client {
	search = strings.ToLower(strings.TrimSpace(search))
	status = strings.ToLower(strings.TrimSpace(status))

	out := make([]domain.Client, 0, len(records))
	for _, c := range records {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Email), search) {
			continue
		}
		if status != "" && status != StatusFilterAll &&
			!strings.EqualFold(string(c.Status), status) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Filter applies FilterRecords to the current snapshot.
func (s *Store) Filter(search, status string) []domain.Client {
	return FilterRecords(s.Snapshot(), search, status)
}
