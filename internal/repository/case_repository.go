package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-bk-api/internal/models"
)

// CaseRepository persists case files across the open log and the settled
// archive. Open rows live in cases_open until settlement moves them, keyed by
// day, into cases_archive.
type CaseRepository struct {
	db *sqlx.DB
}

// NewCaseRepository constructs a CaseRepository.
func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

const caseColumns = `id, score, created_at, assigned_to, case_type, is_new, diagnosis_count, is_test_case, is_absence_penalty, is_backup_bonus, reason`

// ListOpen returns every unsettled case ordered by creation time.
func (r *CaseRepository) ListOpen(ctx context.Context) ([]models.CaseFile, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases_open ORDER BY created_at, id`, caseColumns)
	var cases []models.CaseFile
	if err := r.db.SelectContext(ctx, &cases, query); err != nil {
		return nil, fmt.Errorf("list open cases: %w", err)
	}
	return cases, nil
}

// UpsertOpen writes one open case, replacing any row with the same id.
func (r *CaseRepository) UpsertOpen(ctx context.Context, c *models.CaseFile) error {
	const query = `INSERT INTO cases_open
	(id, score, created_at, assigned_to, case_type, is_new, diagnosis_count, is_test_case, is_absence_penalty, is_backup_bonus, reason)
	VALUES (:id, :score, :created_at, :assigned_to, :case_type, :is_new, :diagnosis_count, :is_test_case, :is_absence_penalty, :is_backup_bonus, :reason)
	ON CONFLICT (id) DO UPDATE SET
	score = EXCLUDED.score,
	assigned_to = EXCLUDED.assigned_to,
	case_type = EXCLUDED.case_type,
	is_new = EXCLUDED.is_new,
	diagnosis_count = EXCLUDED.diagnosis_count,
	is_test_case = EXCLUDED.is_test_case,
	is_absence_penalty = EXCLUDED.is_absence_penalty,
	is_backup_bonus = EXCLUDED.is_backup_bonus,
	reason = EXCLUDED.reason`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("upsert open case: %w", err)
	}
	return nil
}

type archivedCaseRow struct {
	models.CaseFile
	Day string `db:"day"`
}

// ListArchivedSince returns archived cases grouped by day, starting at
// fromDay inclusive.
func (r *CaseRepository) ListArchivedSince(ctx context.Context, fromDay string) (map[string][]models.CaseFile, error) {
	query := fmt.Sprintf(`SELECT day, %s FROM cases_archive WHERE day >= $1 ORDER BY day, created_at, id`, caseColumns)
	var rows []archivedCaseRow
	if err := r.db.SelectContext(ctx, &rows, query, fromDay); err != nil {
		return nil, fmt.Errorf("list archived cases: %w", err)
	}
	grouped := make(map[string][]models.CaseFile, 31)
	for _, row := range rows {
		grouped[row.Day] = append(grouped[row.Day], row.CaseFile)
	}
	return grouped, nil
}

// ArchiveDay moves a day's cases into the archive in one transaction. Re-runs
// are harmless: archived ids are skipped and the open rows are simply gone.
func (r *CaseRepository) ArchiveDay(ctx context.Context, day string, cases []models.CaseFile) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive day: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO cases_archive
	(day, id, score, created_at, assigned_to, case_type, is_new, diagnosis_count, is_test_case, is_absence_penalty, is_backup_bonus, reason)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO NOTHING`
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		if _, err := tx.ExecContext(ctx, insert,
			day, c.ID, c.Score, c.CreatedAt, c.AssignedTo, c.CaseType, c.IsNew,
			c.DiagnosisCount, c.IsTestCase, c.IsAbsencePenalty, c.IsBackupBonus, c.Reason,
		); err != nil {
			return fmt.Errorf("archive case %s: %w", c.ID, err)
		}
		ids = append(ids, c.ID)
	}

	if len(ids) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cases_open WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
			return fmt.Errorf("clear open cases: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive day: %w", err)
	}
	return nil
}
