package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-assist/internal/domain"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

func sampleRequest(id string, priority domain.Priority) *domain.HelpRequest {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.HelpRequest{
		ID:          id,
		StudentID:   "u_stud",
		StudentName: "Student User",
		Category:    domain.CategoryMedical,
		Priority:    priority,
		Location:    "Block A",
		Status:      domain.StatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
		SLADeadline: now.Add(time.Hour),
		History: []domain.AuditLogEntry{{
			Timestamp: now,
			ActorName: "Student User",
			ActorRole: domain.RoleStudent,
			Action:    domain.ActionCreated,
		}},
	}
}

func TestMemoryStoreListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryHelpRequestRepository()

	for _, id := range []string{"REQ-1", "REQ-2", "REQ-3"} {
		require.NoError(t, repo.Insert(ctx, sampleRequest(id, domain.PriorityNormal)))
	}

	items, err := repo.List(ctx, RequestFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "REQ-3", items[0].ID)
	assert.Equal(t, "REQ-1", items[2].ID)

	got, err := repo.Get(ctx, "REQ-2")
	require.NoError(t, err)
	assert.Equal(t, "REQ-2", got.ID)
}

func TestMemoryStoreRejectsDuplicatesAndMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryHelpRequestRepository()
	require.NoError(t, repo.Insert(ctx, sampleRequest("REQ-1", domain.PriorityNormal)))

	err := repo.Insert(ctx, sampleRequest("REQ-1", domain.PriorityNormal))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = repo.Get(ctx, "REQ-404")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = repo.Update(ctx, "REQ-404", func(*domain.HelpRequest) error { return nil })
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestMemoryStoreUpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryHelpRequestRepository()
	require.NoError(t, repo.Insert(ctx, sampleRequest("REQ-1", domain.PriorityNormal)))

	boom := errors.New("boom")
	_, err := repo.Update(ctx, "REQ-1", func(req *domain.HelpRequest) error {
		req.Status = domain.StatusClosed
		req.Record(domain.AuditLogEntry{Action: "TRANSITION: Created -> Closed"})
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.Get(ctx, "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, got.Status)
	assert.Len(t, got.History, 1)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryHelpRequestRepository()
	original := sampleRequest("REQ-1", domain.PriorityNormal)
	require.NoError(t, repo.Insert(ctx, original))

	original.Status = domain.StatusClosed
	got, err := repo.Get(ctx, "REQ-1")
	require.NoError(t, err)
	got.History[0].Action = "tampered"

	again, err := repo.Get(ctx, "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, again.Status)
	assert.Equal(t, domain.ActionCreated, again.History[0].Action)
}

func TestMemoryStoreFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryHelpRequestRepository()

	emergency := sampleRequest("REQ-1", domain.PriorityEmergency)
	closed := sampleRequest("REQ-2", domain.PriorityNormal)
	closed.Status = domain.StatusClosed
	other := sampleRequest("REQ-3", domain.PriorityHigh)
	other.StudentID = "u_other"
	other.Escalated = true
	for _, req := range []*domain.HelpRequest{emergency, closed, other} {
		require.NoError(t, repo.Insert(ctx, req))
	}

	notEscalated := false
	items, err := repo.List(ctx, RequestFilter{Statuses: ActiveStatuses(), Escalated: &notEscalated})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "REQ-1", items[0].ID)

	student := "u_other"
	items, err = repo.List(ctx, RequestFilter{StudentID: &student})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "REQ-3", items[0].ID)

	priority := domain.PriorityNormal
	items, err = repo.List(ctx, RequestFilter{Priority: &priority})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "REQ-2", items[0].ID)
}

func TestMemoryStoreConcurrentUpdatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryHelpRequestRepository()
	require.NoError(t, repo.Insert(ctx, sampleRequest("REQ-1", domain.PriorityNormal)))

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := repo.Update(ctx, "REQ-1", func(req *domain.HelpRequest) error {
				req.Record(domain.AuditLogEntry{Action: fmt.Sprintf("note %d", n)})
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := repo.Get(ctx, "REQ-1")
	require.NoError(t, err)
	assert.Len(t, got.History, writers+1)
	assert.Equal(t, domain.ActionCreated, got.History[writers].Action)
}

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	_, err := repo.Get(ctx, "u_stud")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	stamp := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	user := &domain.User{ID: "u_stud", Name: "Student User", Role: domain.RoleStudent, LastRequestTime: &stamp}
	require.NoError(t, repo.Save(ctx, user))

	stamp = stamp.Add(time.Hour)
	got, err := repo.Get(ctx, "u_stud")
	require.NoError(t, err)
	require.NotNil(t, got.LastRequestTime)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), *got.LastRequestTime)
}
