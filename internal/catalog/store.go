package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"workflow-chat/internal/common/logger"
	"workflow-chat/internal/models"
)

var (
	ErrWorkflowNotFound  = errors.New("WORKFLOW_NOT_FOUND")
	ErrQueryFailed       = errors.New("QUERY_EXECUTION_FAILED")
	ErrInvalidParameters = errors.New("PARAMETER_VALIDATION_FAILED")
)

const defaultListLimit = 20

// Store reads workflow metadata from Postgres. Elasticsearch answers chat
// searches; the store is the system of record and the fallback when the
// index is unavailable.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "workflow-catalog"}),
	}
}

const workflowColumns = `id, title, description, category, complexity, tags,
       usage_count, rating, parameters, active, created_at, updated_at`

// GetWorkflow loads one workflow by id.
func (s *Store) GetWorkflow(ctx context.Context, id string) (*models.WorkflowDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+workflowColumns+`
		FROM workflows
		WHERE id = $1`, id)
	detail, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get workflow: %v", ErrQueryFailed, err)
	}
	return detail, nil
}

// FindByTitle loads one workflow by its exact title, case-insensitively.
func (s *Store) FindByTitle(ctx context.Context, title string) (*models.WorkflowDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+workflowColumns+`
		FROM workflows
		WHERE LOWER(title) = LOWER($1) AND active`, title)
	detail, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, title)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find by title: %v", ErrQueryFailed, err)
	}
	return detail, nil
}

// ListByCategory returns active workflows in one category, most used first.
func (s *Store) ListByCategory(ctx context.Context, category string, limit int) ([]models.WorkflowSummary, error) {
	if limit < 1 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+workflowColumns+`
		FROM workflows
		WHERE category = $1 AND active
		ORDER BY usage_count DESC, title
		LIMIT $2`, category, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list by category: %v", ErrQueryFailed, err)
	}
	defer rows.Close()
	return collectSummaries(rows)
}

// SearchByName finds active workflows whose title or description contains the
// given fragment. This is the degraded-mode search used when the index is
// down; ranking happens in the chat layer.
func (s *Store) SearchByName(ctx context.Context, fragment string, limit int) ([]models.WorkflowSummary, error) {
	if limit < 1 {
		limit = defaultListLimit
	}
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+workflowColumns+`
		FROM workflows
		WHERE (title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%') AND active
		ORDER BY usage_count DESC, title
		LIMIT $2`, fragment, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: search by name: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	summaries, err := collectSummaries(rows)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("catalog name search completed", map[string]interface{}{
		"fragment":   fragment,
		"returned":   len(summaries),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return summaries, nil
}

// RecordUsage bumps the usage counter after a successful launch.
func (s *Store) RecordUsage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE workflows SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: record usage: %v", ErrQueryFailed, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	return nil
}

// UpsertWorkflow inserts or replaces one workflow row. Used by the seeding
// tool, not the chat path.
func (s *Store) UpsertWorkflow(ctx context.Context, wf *models.WorkflowDetail) error {
	params, err := json.Marshal(wf.Parameters)
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflows (id, title, description, category, complexity, tags,
		                       usage_count, rating, parameters, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			complexity = EXCLUDED.complexity,
			tags = EXCLUDED.tags,
			rating = EXCLUDED.rating,
			parameters = EXCLUDED.parameters,
			active = EXCLUDED.active,
			updated_at = NOW()`,
		wf.ID, wf.Title, wf.Description, wf.Category, wf.Complexity,
		pq.Array(wf.Tags), wf.UsageCount, wf.Rating, params, wf.Active)
	if err != nil {
		return fmt.Errorf("%w: upsert workflow: %v", ErrQueryFailed, err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkflow(row scanner) (*models.WorkflowDetail, error) {
	var detail models.WorkflowDetail
	var tags pq.StringArray
	var params []byte

	err := row.Scan(
		&detail.ID, &detail.Title, &detail.Description, &detail.Category,
		&detail.Complexity, &tags, &detail.UsageCount, &detail.Rating,
		&params, &detail.Active, &detail.CreatedAt, &detail.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	detail.Tags = tags
	if len(params) > 0 {
		if err := json.Unmarshal(params, &detail.Parameters); err != nil {
			return nil, fmt.Errorf("decode parameters for %s: %w", detail.ID, err)
		}
	}
	return &detail, nil
}

func collectSummaries(rows *sql.Rows) ([]models.WorkflowSummary, error) {
	var summaries []models.WorkflowSummary
	for rows.Next() {
		detail, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan workflow: %v", ErrQueryFailed, err)
		}
		summaries = append(summaries, detail.WorkflowSummary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate workflows: %v", ErrQueryFailed, err)
	}
	return summaries, nil
}
