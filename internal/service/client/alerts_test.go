package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosan/sanitrack/internal/domain"
	"github.com/ecosan/sanitrack/internal/service/client"
)

// clientDueIn builds an active record whose signed days-until-expiry at
// `now` equals the given value.
func clientDueIn(id string, now time.Time, days int) domain.Client {
	duration := 30
	return domain.Client{
		ID:           id,
		Name:         "Cliente " + id,
		Status:       domain.StatusActive,
		StartDate:    now.AddDate(0, 0, days-duration),
		DurationDays: duration,
		Active:       true,
	}
}

func TestProjectAlertsThresholdBoundary(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.Client{
		clientDueIn("at-15", now, 15),
		clientDueIn("at-16", now, 16),
	}

	view := client.ProjectAlerts(records, now)
	require.Equal(t, 1, view.Total)
	assert.Equal(t, "at-15", view.Items[0].ID, "15 days is inside the threshold, 16 is out")
}

func TestProjectAlertsUrgencyTiers(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.Client{
		clientDueIn("seven", now, 7),
		clientDueIn("eight", now, 8),
	}

	view := client.ProjectAlerts(records, now)
	require.Equal(t, 2, view.Total)

	byID := map[string]client.Alert{}
	for _, a := range view.Items {
		byID[a.ID] = a
	}
	assert.Equal(t, client.UrgencyHigh, byID["seven"].Urgency)
	assert.Equal(t, client.UrgencyMedium, byID["eight"].Urgency)
}

func TestProjectAlertsOverdueSortFirst(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.Client{
		clientDueIn("due-5", now, 5),
		clientDueIn("overdue-2", now, -2),
	}

	view := client.ProjectAlerts(records, now)
	require.Equal(t, 2, view.Total)
	assert.Equal(t, "overdue-2", view.Items[0].ID, "negative days sort before positive")
	assert.Equal(t, -2, view.Items[0].DaysLeft)
	assert.Equal(t, client.UrgencyHigh, view.Items[0].Urgency)
	assert.Equal(t, 5, view.Items[1].DaysLeft)
}

func TestProjectAlertsTopPrefix(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.Client{
		clientDueIn("a", now, 10),
		clientDueIn("b", now, 2),
		clientDueIn("c", now, 14),
		clientDueIn("d", now, 1),
		clientDueIn("e", now, 6),
	}

	view := client.ProjectAlerts(records, now)
	assert.Equal(t, 5, view.Total)
	require.Len(t, view.Top, 3)
	assert.Equal(t, []string{"d", "b", "e"}, []string{view.Top[0].ID, view.Top[1].ID, view.Top[2].ID})
	assert.Len(t, view.Items, 5)
}

func TestProjectAlertsEmpty(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	view := client.ProjectAlerts([]domain.Client{clientDueIn("far", now, 120)}, now)
	assert.Zero(t, view.Total)
	assert.Empty(t, view.Items)
	assert.Empty(t, view.Top)
}

func TestStoreAlertsSuppressedUntilLoaded(t *testing.T) {
	repo := newMemRepo()
	s := newTestStore(repo)

	// No initial load has run: the projection stays empty even though a
	// record exists in the backend.
	_, err := repo.Insert(context.Background(), &domain.Client{
		Name: "Pending", Email: "p@example.com", Phone: "1",
		Status: domain.StatusActive, StartDate: testNow.AddDate(0, 0, -29),
		DurationDays: 30, Active: true,
	})
	require.NoError(t, err)

	assert.Zero(t, s.Alerts(testNow).Total)

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 1, s.Alerts(testNow).Total)
}
