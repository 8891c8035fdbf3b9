package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-assist/internal/domain"
	"github.com/spec-kit/campus-assist/internal/lifecycle"
	"github.com/spec-kit/campus-assist/internal/repository"
)

type demoStep struct {
	status domain.RequestStatus
	after  time.Duration
	notes  string
}

type demoRequest struct {
	student domain.User
	officer domain.User
	input   lifecycle.CreateInput
	age     time.Duration
	steps   []demoStep
}

// Oldest first, so the store lists them newest first.
var demoRequests = []demoRequest{
	{
		student: domain.User{ID: "u_demo_meena", Name: "Meena", Role: domain.RoleStudent},
		officer: domain.User{ID: "u_demo_sarah", Name: "Officer Sarah", Role: domain.RoleResponseOfficer},
		input: lifecycle.CreateInput{
			Category:    domain.CategoryAssistance,
			Priority:    domain.PriorityNormal,
			Location:    "Central Library, Desk 5",
			Description: "Lost ID card in the library.",
		},
		age: 24 * time.Hour,
		steps: []demoStep{
			{status: domain.StatusAcknowledged, after: 2 * time.Hour},
			{status: domain.StatusInProgress, after: 12 * time.Hour, notes: "Checking the lost and found"},
			{status: domain.StatusResolved, after: 13 * time.Hour, notes: "ID card found and deposited at security desk."},
		},
	},
	{
		student: domain.User{ID: "u_demo_ravi", Name: "Ravi", Role: domain.RoleStudent},
		officer: domain.User{ID: "u_demo_john", Name: "Officer John", Role: domain.RoleResponseOfficer},
		input: lifecycle.CreateInput{
			Category:    domain.CategorySafety,
			Priority:    domain.PriorityHigh,
			Location:    "South Gate Parking Lot",
			Description: "Suspicious activity near the south gate.",
		},
		age: time.Hour,
		steps: []demoStep{
			{status: domain.StatusAcknowledged, after: 100 * time.Second},
		},
	},
	{
		student: domain.User{ID: "u_demo_anu", Name: "Anu", Role: domain.RoleStudent},
		input: lifecycle.CreateInput{
			Category:    domain.CategoryMedical,
			Priority:    domain.PriorityEmergency,
			Location:    "Block A, 2nd Floor, Room 204",
			Description: "Severe allergic reaction, need ambulance.",
		},
		age: 100 * time.Second,
	},
}

// SeedDemoRequests inserts a few backdated requests built through the
// lifecycle engine, so a fresh deployment has a populated dashboard.
func SeedDemoRequests(ctx context.Context, repo repository.HelpRequestRepository, policy lifecycle.Policy, now time.Time, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for i, demo := range demoRequests {
		clk := clockwork.NewFakeClockAt(now.Add(-demo.age))
		engine := lifecycle.NewEngine(policy, clk)

		student := demo.student
		req, err := engine.Create(&student, demo.input)
		if err != nil {
			return i, fmt.Errorf("seed %q: %w", demo.input.Location, err)
		}

		var elapsed time.Duration
		for _, step := range demo.steps {
			clk.Advance(step.after - elapsed)
			elapsed = step.after
			officer := demo.officer
			if err := engine.Transition(req, &officer, step.status, step.notes); err != nil {
				return i, fmt.Errorf("seed %s -> %s: %w", req.ID, step.status, err)
			}
		}

		if err := repo.Insert(ctx, req); err != nil {
			return i, fmt.Errorf("seed %s: %w", req.ID, err)
		}
	}

	logger.Info("seeded demo requests", zap.Int("count", len(demoRequests)))
	return len(demoRequests), nil
}
