package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-assist/internal/domain"
	"github.com/spec-kit/campus-assist/internal/lifecycle"
)

func TestOverviewEmptyStore(t *testing.T) {
	f := newFixture(t)
	overview, err := f.dashboard.Overview(context.Background(), t0)
	require.NoError(t, err)
	assert.Zero(t, overview.ActiveBreaches)
	assert.Zero(t, overview.AverageResponseMinutes)
	assert.Equal(t, 100, overview.AcknowledgeRate)
	assert.Empty(t, overview.EmergencyQueue)
	assert.Empty(t, overview.WorkQueue)
}

func TestOverviewMetrics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	officer := officerUser("Officer X")

	// Emergency acknowledged after 5 minutes and resolved after 20.
	fast, err := f.svc.CreateRequest(ctx, studentUser(), emergencyInput())
	require.NoError(t, err)
	f.clock.Advance(5 * time.Minute)
	_, err = f.svc.TransitionRequest(ctx, fast.ID, officer, domain.StatusAcknowledged, "")
	require.NoError(t, err)
	_, err = f.svc.TransitionRequest(ctx, fast.ID, officer, domain.StatusInProgress, "")
	require.NoError(t, err)
	f.clock.Advance(15 * time.Minute)
	_, err = f.svc.TransitionRequest(ctx, fast.ID, officer, domain.StatusResolved, "done")
	require.NoError(t, err)

	// Normal request acknowledged late.
	slow, err := f.svc.CreateRequest(ctx, &domain.User{ID: "u_other", Name: "Student User", Role: domain.RoleStudent},
		lifecycle.CreateInput{Category: domain.CategoryFacilities, Location: "Hostel 3"})
	require.NoError(t, err)
	f.clock.Advance(20 * time.Minute)
	_, err = f.svc.TransitionRequest(ctx, slow.ID, officer, domain.StatusAcknowledged, "")
	require.NoError(t, err)

	// High request left untouched past its deadline.
	breached, err := f.svc.CreateRequest(ctx, &domain.User{ID: "u_third", Name: "Student User", Role: domain.RoleStudent},
		lifecycle.CreateInput{Category: domain.CategorySafety, Priority: domain.PriorityHigh, Location: "Gate 2"})
	require.NoError(t, err)

	now := breached.CreatedAt.Add(4*time.Hour + time.Second)
	overview, err := f.dashboard.Overview(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, 3, overview.Total)
	assert.Equal(t, 1, overview.ActiveBreaches)
	assert.Equal(t, 20, overview.AverageResponseMinutes)
	assert.Equal(t, 50, overview.AcknowledgeRate)

	require.Len(t, overview.EmergencyQueue, 1)
	assert.Equal(t, fast.ID, overview.EmergencyQueue[0].Request.ID)
	require.Len(t, overview.WorkQueue, 2)
	assert.Equal(t, breached.ID, overview.WorkQueue[0].Request.ID)
	assert.Equal(t, lifecycle.SeverityBreached, overview.WorkQueue[0].SLA.Severity)
	assert.Equal(t, "-0:00:01", overview.WorkQueue[0].SLA.Display)
}
