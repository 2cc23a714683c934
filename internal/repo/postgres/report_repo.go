package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
)

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

func (r *ReportRepo) Create(ctx context.Context, report model.Report) error {
	if report.ID == uuid.Nil || report.ReporterID == uuid.Nil || report.TargetID == uuid.Nil {
		return fmt.Errorf("invalid report payload")
	}
	if report.ReporterID == report.TargetID {
		return fmt.Errorf("cannot report self")
	}
	if strings.TrimSpace(string(report.Reason)) == "" {
		return fmt.Errorf("report reason is required")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO reports (
	id,
	reporter_id,
	target_id,
	reason,
	details,
	status,
	created_at
) VALUES ($1, $2, $3, $4, $5, 'new', NOW())
`, report.ID, report.ReporterID, report.TargetID, string(report.Reason), strings.TrimSpace(report.Details)); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	return nil
}

// DeleteHandledOlderThan purges reports already worked by moderation.
// Rows still in 'new' are never touched.
func (r *ReportRepo) DeleteHandledOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM reports
WHERE status <> 'new' AND created_at < $1
`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete handled reports: %w", err)
	}

	return result.RowsAffected(), nil
}
