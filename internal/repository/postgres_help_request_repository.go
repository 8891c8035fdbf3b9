package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-assist/internal/domain"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

const helpRequestColumns = `id, student_id, student_name, category, priority, description, location,
       status, assigned_to, escalated, created_at, updated_at, sla_deadline, history, resolution_notes`

const uniqueViolation = "23505"

type postgresHelpRequestRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresHelpRequestRepository instantiates the pgx-backed store.
func NewPostgresHelpRequestRepository(pool *pgxpool.Pool) HelpRequestRepository {
	return &postgresHelpRequestRepository{pool: pool}
}

func (r *postgresHelpRequestRepository) Insert(ctx context.Context, req *domain.HelpRequest) error {
	history, err := json.Marshal(req.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	const query = `
        INSERT INTO help_requests (id, student_id, student_name, category, priority, description, location,
            status, assigned_to, escalated, created_at, updated_at, sla_deadline, history, resolution_notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14::jsonb,$15)`
	_, err = r.pool.Exec(ctx, query,
		req.ID,
		req.StudentID,
		req.StudentName,
		req.Category,
		req.Priority,
		req.Description,
		req.Location,
		req.Status,
		req.AssignedTo,
		req.Escalated,
		req.CreatedAt,
		req.UpdatedAt,
		req.SLADeadline,
		string(history),
		req.ResolutionNotes,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperrors.NewConflict("request already exists", map[string]any{"id": req.ID})
	}
	return err
}

func (r *postgresHelpRequestRepository) Get(ctx context.Context, id string) (*domain.HelpRequest, error) {
	query := `SELECT ` + helpRequestColumns + ` FROM help_requests WHERE id=$1`
	req, err := scanHelpRequest(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("help request", map[string]any{"id": id})
	}
	return req, err
}

func (r *postgresHelpRequestRepository) List(ctx context.Context, filter RequestFilter) ([]*domain.HelpRequest, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		clauses = append(clauses, fmt.Sprintf("student_id=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.Escalated != nil {
		args = append(args, *filter.Escalated)
		clauses = append(clauses, fmt.Sprintf("escalated=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM help_requests WHERE %s ORDER BY seq DESC`,
		helpRequestColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.HelpRequest
	for rows.Next() {
		req, err := scanHelpRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func (r *postgresHelpRequestRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*domain.HelpRequest, error) {
	var updated *domain.HelpRequest
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := `SELECT ` + helpRequestColumns + ` FROM help_requests WHERE id=$1 FOR UPDATE`
		req, err := scanHelpRequest(tx.QueryRow(ctx, query, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("help request", map[string]any{"id": id})
		}
		if err != nil {
			return err
		}
		if err := fn(req); err != nil {
			return err
		}

		history, err := json.Marshal(req.History)
		if err != nil {
			return fmt.Errorf("encode history: %w", err)
		}
		const update = `
            UPDATE help_requests SET status=$1, assigned_to=$2, escalated=$3, updated_at=$4,
                history=$5::jsonb, resolution_notes=$6
            WHERE id=$7`
		if _, err := tx.Exec(ctx, update,
			req.Status,
			req.AssignedTo,
			req.Escalated,
			req.UpdatedAt,
			string(history),
			req.ResolutionNotes,
			req.ID,
		); err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func scanHelpRequest(row pgx.Row) (*domain.HelpRequest, error) {
	var (
		req     domain.HelpRequest
		history []byte
	)
	if err := row.Scan(
		&req.ID,
		&req.StudentID,
		&req.StudentName,
		&req.Category,
		&req.Priority,
		&req.Description,
		&req.Location,
		&req.Status,
		&req.AssignedTo,
		&req.Escalated,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.SLADeadline,
		&history,
		&req.ResolutionNotes,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(history, &req.History); err != nil {
		return nil, fmt.Errorf("decode history for %s: %w", req.ID, err)
	}
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()
	req.SLADeadline = req.SLADeadline.UTC()
	return &req, nil
}
