package staging

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/n0roo/pif-kit/internal/db"
	"github.com/n0roo/pif-kit/internal/model"
)

// LoadResult contains bulk load statistics
type LoadResult struct {
	SubmissionID string `json:"submission_id"`
	Site         string `json:"site"`
	Records      int    `json:"records"`
	CostLines    int    `json:"cost_lines"`
}

// Store manages the staging landing area
type Store struct {
	db db.Database
}

// NewStore creates a new staging store
func NewStore(database db.Database) *Store {
	return &Store{db: database}
}

// Load replaces the entire staging area with one submission batch.
// 스테이징은 전역 공유 영역이므로 사이트 무관하게 전체 truncate 후 적재한다.
// 한 번에 한 사이트의 추출본만 적재해야 한다.
func (s *Store) Load(site string, records []model.ProjectRecord, costLines []model.CostLine) (*LoadResult, error) {
	submissionID := uuid.New().String()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("트랜잭션 시작 실패: %w", err)
	}
	defer tx.Rollback()

	// 이전 제출분 전체 제거 (다른 사이트 잔여분 포함)
	if _, err := tx.Exec(`DELETE FROM pif_staging_costs`); err != nil {
		return nil, fmt.Errorf("스테이징 비용 초기화 실패: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM pif_staging`); err != nil {
		return nil, fmt.Errorf("스테이징 초기화 실패: %w", err)
	}

	recStmt, err := tx.Prepare(`
		INSERT INTO pif_staging (
			request_id, subject_id, line_number, status, change_type, accounting_type,
			category, segment, opco, site, original_date, revised_date, issue_ref,
			justification, prior_year_spend, retain_flag, include_flag, submission_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("INSERT 준비 실패: %w", err)
	}
	defer recStmt.Close()

	for _, r := range records {
		key := r.Key.Normalize()
		if _, err := recStmt.Exec(
			key.RequestID, key.SubjectID, key.LineNumber,
			r.Status, r.ChangeType, r.AccountingType, r.Category, r.Segment,
			r.OpCo, r.Site, r.OriginalDate, r.RevisedDate, r.IssueRef,
			r.Justification, r.PriorYearSpend, boolToInt(r.Retain), boolToInt(r.Include),
			submissionID,
		); err != nil {
			return nil, fmt.Errorf("레코드 적재 실패 (%s): %w", key, err)
		}
	}

	costStmt, err := tx.Prepare(`
		INSERT INTO pif_staging_costs (
			request_id, subject_id, line_number, scenario, fiscal_year,
			requested_value, baseline_value, variance_value, submission_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("INSERT 준비 실패: %w", err)
	}
	defer costStmt.Close()

	for _, c := range costLines {
		key := c.Key.Normalize()
		if _, err := costStmt.Exec(
			key.RequestID, key.SubjectID, key.LineNumber,
			string(c.Scenario), c.FiscalYear,
			c.RequestedValue, c.BaselineValue, c.VarianceValue,
			submissionID,
		); err != nil {
			return nil, fmt.Errorf("비용 적재 실패 (%s): %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("커밋 실패: %w", err)
	}

	return &LoadResult{
		SubmissionID: submissionID,
		Site:         site,
		Records:      len(records),
		CostLines:    len(costLines),
	}, nil
}

// Counts returns current staging row counts
func (s *Store) Counts() (records, costLines int, err error) {
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM pif_staging`).Scan(&records); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM pif_staging_costs`).Scan(&costLines); err != nil {
		return 0, 0, err
	}
	return records, costLines, nil
}

// CurrentSubmission returns the submission id of the loaded batch
func (s *Store) CurrentSubmission() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT submission_id FROM pif_staging LIMIT 1`).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
