package client

import (
	"sort"
	"time"

	"github.com/ecosan/sanitrack/internal/domain"
	"github.com/ecosan/sanitrack/internal/sanitization"
)

// Alert thresholds. A record enters the alert view once its signed
// days-until-expiry drops to AlertThresholdDays; within the view, anything
// at or under HighUrgencyDays is the high tier and the rest are medium.
const (
	AlertThresholdDays = 15
	HighUrgencyDays    = 7
	TopAlertCount      = 3
)

// Urgency is presentation metadata derived from the expiry threshold, not a
// stored field.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
)

// Alert is one expiring-soon entry. DaysLeft is signed: overdue records
// carry negative values and sort first.
type Alert struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	DaysLeft int     `json:"days_left"`
	Urgency  Urgency `json:"urgency"`
}

// AlertView is the bounded expiring-soon projection for the dashboard:
// total count, the full ordered list, and a top-N prefix for the compact
// summary.
type AlertView struct {
	Total int     `json:"total"`
	Top   []Alert `json:"top"`
	Items []Alert `json:"items"`
}

// ProjectAlerts derives the expiring-soon view from a snapshot. Records
// within the threshold (including already-overdue ones) are sorted most
// urgent first.
func ProjectAlerts(records []domain.Client, now time.Time) AlertView {
	var alerts []Alert
	for _, c := range records {
		if c.DurationDays <= 0 {
			continue
		}
		days := sanitization.DaysUntilExpiry(c.StartDate, c.DurationDays, now)
		if days > AlertThresholdDays {
			continue
		}
		urgency := UrgencyMedium
		if days <= HighUrgencyDays {
			urgency = UrgencyHigh
		}
		alerts = append(alerts, Alert{
			ID:       c.ID,
			Name:     c.Name,
			DaysLeft: days,
			Urgency:  urgency,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DaysLeft < alerts[j].DaysLeft
	})

	top := alerts
	if len(top) > TopAlertCount {
		top = top[:TopAlertCount]
	}

	return AlertView{Total: len(alerts), Top: top, Items: alerts}
}

// Alerts projects the expiring-soon view over the current snapshot. While
// the initial load is still pending the view is empty, so the dashboard
// panel stays suppressed.
func (s *Store) Alerts(now time.Time) AlertView {
	if !s.Loaded() {
		return AlertView{}
	}
	return ProjectAlerts(s.Snapshot(), now)
}
