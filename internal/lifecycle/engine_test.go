package lifecycle

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-assist/internal/domain"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine(policy Policy) (*Engine, clockwork.FakeClock) {
	clk := clockwork.NewFakeClockAt(epoch)
	seq := 0
	return NewEngine(policy, clk, WithIDGenerator(func() string {
		seq++
		return "REQ-" + string(rune('A'+seq-1))
	})), clk
}

func student() *domain.User {
	return &domain.User{ID: "u_stud", Name: "Student User", Role: domain.RoleStudent}
}

func officer(name string) *domain.User {
	return &domain.User{ID: "u_admin", Name: name, Role: domain.RoleResponseOfficer}
}

func supervisor() *domain.User {
	return &domain.User{ID: "u_super", Name: "Escalation Supervisor", Role: domain.RoleSupervisor}
}

func mustCreate(t *testing.T, e *Engine, priority domain.Priority) *domain.HelpRequest {
	t.Helper()
	req, err := e.Create(student(), CreateInput{Category: domain.CategoryMedical, Priority: priority, Location: "Block A"})
	require.NoError(t, err)
	return req
}

func TestCreateSetsDeadlinePerPriority(t *testing.T) {
	engine, _ := newTestEngine(DefaultPolicy())

	cases := map[domain.Priority]time.Duration{
		domain.PriorityEmergency: time.Hour,
		domain.PriorityHigh:      4 * time.Hour,
		domain.PriorityNormal:    24 * time.Hour,
	}
	for priority, want := range cases {
		req := mustCreate(t, engine, priority)
		assert.Equal(t, want, req.SLADeadline.Sub(req.CreatedAt), priority)
		assert.Equal(t, domain.StatusCreated, req.Status)
		assert.False(t, req.Escalated)
		require.Len(t, req.History, 1)
		assert.Equal(t, domain.ActionCreated, req.History[0].Action)
		assert.Equal(t, "Student User", req.History[0].ActorName)
		assert.Equal(t, domain.RoleStudent, req.History[0].ActorRole)
	}
}

func TestCreateDefaultsPriorityToNormal(t *testing.T) {
	engine, _ := newTestEngine(DefaultPolicy())

	req, err := engine.Create(student(), CreateInput{Category: domain.CategoryFacilities, Location: "Hostel 3"})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityNormal, req.Priority)
	assert.Equal(t, 24*time.Hour, req.SLADeadline.Sub(req.CreatedAt))
}

func TestCreateValidation(t *testing.T) {
	engine, _ := newTestEngine(DefaultPolicy())

	cases := []CreateInput{
		{Category: domain.CategoryMedical, Location: "   "},
		{Location: "Block A"},
		{Category: "Plumbing", Location: "Block A"},
		{Category: domain.CategorySafety, Priority: "Urgent", Location: "Block A"},
	}
	for _, input := range cases {
		requester := student()
		req, err := engine.Create(requester, input)
		assert.Nil(t, req)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "%+v", input)
		assert.Nil(t, requester.LastRequestTime)
	}
}

func TestCreateRequiresActor(t *testing.T) {
	engine, _ := newTestEngine(DefaultPolicy())

	_, err := engine.Create(nil, CreateInput{Category: domain.CategoryMedical, Location: "Block A"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestEmergencyCooldown(t *testing.T) {
	engine, clk := newTestEngine(DefaultPolicy())
	requester := student()
	input := CreateInput{Category: domain.CategoryMedical, Priority: domain.PriorityEmergency, Location: "Block A"}

	_, err := engine.Create(requester, input)
	require.NoError(t, err)
	require.NotNil(t, requester.LastRequestTime)
	stamp := *requester.LastRequestTime

	clk.Advance(2 * time.Minute)
	req, err := engine.Create(requester, input)
	assert.Nil(t, req)
	require.True(t, apperrors.HasCode(err, apperrors.CodeRateLimited))
	wait, ok := apperrors.RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, 3*time.Minute, wait)
	assert.Equal(t, stamp, *requester.LastRequestTime)

	// Non-emergency submissions ignore the cooldown.
	_, err = engine.Create(requester, CreateInput{Category: domain.CategoryAssistance, Location: "Library"})
	require.NoError(t, err)

	clk.Advance(3 * time.Minute)
	_, err = engine.Create(requester, input)
	require.NoError(t, err)
}

func TestStampingPolicy(t *testing.T) {
	normal := CreateInput{Category: domain.CategoryAssistance, Priority: domain.PriorityNormal, Location: "Library"}

	engine, _ := newTestEngine(DefaultPolicy())
	requester := student()
	_, err := engine.Create(requester, normal)
	require.NoError(t, err)
	assert.Nil(t, requester.LastRequestTime)

	policy := DefaultPolicy()
	policy.StampAllSubmissions = true
	engine, _ = newTestEngine(policy)
	_, err = engine.Create(requester, normal)
	require.NoError(t, err)
	require.NotNil(t, requester.LastRequestTime)
	assert.Equal(t, epoch, *requester.LastRequestTime)

	_, err = engine.Create(requester, CreateInput{Category: domain.CategoryMedical, Priority: domain.PriorityEmergency, Location: "Block A"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRateLimited))
}

func TestTransitionRecordsAuditAndAssigns(t *testing.T) {
	engine, clk := newTestEngine(DefaultPolicy())
	req := mustCreate(t, engine, domain.PriorityNormal)

	clk.Advance(time.Minute)
	require.NoError(t, engine.Transition(req, officer("Officer X"), domain.StatusAcknowledged, ""))
	assert.Equal(t, domain.StatusAcknowledged, req.Status)
	assert.Equal(t, "Officer X", req.AssignedTo)
	assert.Equal(t, epoch.Add(time.Minute), req.UpdatedAt)
	require.Len(t, req.History, 2)
	assert.Equal(t, "TRANSITION: Created -> Acknowledged", req.History[0].Action)
	assert.Equal(t, domain.RoleResponseOfficer, req.History[0].ActorRole)

	// A second acknowledgment never reassigns.
	require.NoError(t, engine.Transition(req, officer("Officer Y"), domain.StatusAcknowledged, ""))
	assert.Equal(t, "Officer X", req.AssignedTo)

	require.NoError(t, engine.Transition(req, officer("Officer Y"), domain.StatusInProgress, ""))
	require.NoError(t, engine.Transition(req, officer("Officer Y"), domain.StatusResolved, "  Found at desk "))
	assert.Equal(t, "Found at desk", req.ResolutionNotes)
	assert.Equal(t, "Found at desk", req.History[0].Notes)

	require.NoError(t, engine.Transition(req, officer("Officer Y"), domain.StatusClosed, "verified"))
	assert.Equal(t, domain.StatusClosed, req.Status)
	assert.Equal(t, "Found at desk", req.ResolutionNotes)
	assert.Len(t, req.History, 6)
	assert.Equal(t, domain.ActionCreated, req.History[len(req.History)-1].Action)
}

func TestTransitionGovernance(t *testing.T) {
	engine, _ := newTestEngine(DefaultPolicy())

	emergency := mustCreate(t, engine, domain.PriorityEmergency)
	before := emergency.Clone()
	err := engine.Transition(emergency, officer("Officer X"), domain.StatusClosed, "done")
	require.True(t, apperrors.HasCode(err, apperrors.CodeGovernance))
	assert.Equal(t, before, emergency)

	require.NoError(t, engine.Transition(emergency, supervisor(), domain.StatusClosed, "done"))
	assert.Equal(t, domain.StatusClosed, emergency.Status)

	escalated := mustCreate(t, engine, domain.PriorityHigh)
	escalated.Escalated = true
	err = engine.Transition(escalated, officer("Officer X"), domain.StatusClosed, "done")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeGovernance))
	assert.Len(t, escalated.History, 1)

	// Officers may still resolve emergencies; only closure is gated.
	require.NoError(t, engine.Transition(mustCreate(t, engine, domain.PriorityEmergency), officer("Officer X"), domain.StatusResolved, "ok"))
}

func TestGovernanceCheckedBeforeCompliance(t *testing.T) {
	engine, _ := newTestEngine(DefaultPolicy())
	req := mustCreate(t, engine, domain.PriorityEmergency)

	err := engine.Transition(req, officer("Officer X"), domain.StatusClosed, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeGovernance))
}

func TestTransitionCompliance(t *testing.T) {
	engine, _ := newTestEngine(DefaultPolicy())

	for _, target := range []domain.RequestStatus{domain.StatusResolved, domain.StatusClosed} {
		req := mustCreate(t, engine, domain.PriorityNormal)
		before := req.Clone()
		err := engine.Transition(req, supervisor(), target, "  ")
		require.True(t, apperrors.HasCode(err, apperrors.CodeCompliance), target)
		assert.Equal(t, before, req)
	}
}

func TestTransitionRejectsUnknownStatusAndMissingActor(t *testing.T) {
	engine, _ := newTestEngine(DefaultPolicy())
	req := mustCreate(t, engine, domain.PriorityNormal)
	before := req.Clone()

	err := engine.Transition(req, officer("Officer X"), "Reopened", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	err = engine.Transition(req, nil, domain.StatusAcknowledged, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	assert.Equal(t, before, req)
}

func TestEscalateBreached(t *testing.T) {
	engine, _ := newTestEngine(DefaultPolicy())
	req := mustCreate(t, engine, domain.PriorityEmergency)

	assert.False(t, engine.EscalateBreached(req, epoch.Add(time.Hour)))
	assert.False(t, req.Escalated)

	now := epoch.Add(3601 * time.Second)
	assert.True(t, engine.EscalateBreached(req, now))
	assert.True(t, req.Escalated)
	assert.Equal(t, domain.StatusCreated, req.Status)
	require.Len(t, req.History, 2)
	assert.Equal(t, domain.ActionEscalatedSLA, req.History[0].Action)
	assert.Equal(t, domain.RoleSystem, req.History[0].ActorRole)
	assert.Equal(t, now, req.History[0].Timestamp)
	assert.Equal(t, epoch, req.UpdatedAt)

	// One-way and idempotent.
	assert.False(t, engine.EscalateBreached(req, now.Add(time.Hour)))
	assert.Len(t, req.History, 2)
}

func TestEscalateBreachedSkipsTerminal(t *testing.T) {
	engine, _ := newTestEngine(DefaultPolicy())
	req := mustCreate(t, engine, domain.PriorityEmergency)
	require.NoError(t, engine.Transition(req, officer("Officer X"), domain.StatusResolved, "handled"))

	assert.False(t, engine.EscalateBreached(req, epoch.Add(48*time.Hour)))
	assert.False(t, req.Escalated)
}

func TestManualEscalation(t *testing.T) {
	engine, _ := newTestEngine(DefaultPolicy())
	req := mustCreate(t, engine, domain.PriorityNormal)

	err := engine.Escalate(req, officer("Officer X"), "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeGovernance))
	assert.False(t, req.Escalated)

	require.NoError(t, engine.Escalate(req, supervisor(), "formal review"))
	assert.True(t, req.Escalated)
	assert.Equal(t, domain.ActionEscalatedManual, req.History[0].Action)
	assert.Equal(t, "formal review", req.History[0].Notes)

	err = engine.Escalate(req, supervisor(), "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestGeneratedIDFormat(t *testing.T) {
	engine := NewEngine(DefaultPolicy(), nil)
	req, err := engine.Create(student(), CreateInput{Category: domain.CategorySafety, Location: "Gate"})
	require.NoError(t, err)
	assert.Regexp(t, `^REQ-[0-9A-F]{8}$`, req.ID)
}
