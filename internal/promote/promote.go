package promote

import (
	"fmt"

	"github.com/n0roo/pif-kit/internal/db"
)

// Result contains promotion counts
type Result struct {
	Site           string `json:"site"`
	ProjectsMoved  int    `json:"projects_moved"`
	CostLinesMoved int    `json:"cost_lines_moved"`
}

// Promoter replaces a site's inflight slice with the staging batch
type Promoter struct {
	db db.Database
}

// NewPromoter creates a new promoter
func NewPromoter(database db.Database) *Promoter {
	return &Promoter{db: database}
}

// Commit atomically replaces the site's inflight rows with staging content.
// 스테이징이 해당 사이트 제출본의 원본이므로 diff 대신 삭제 후 재삽입한다.
// 다른 사이트의 인플라이트 행은 건드리지 않는다.
func (p *Promoter) Commit(site string) (*Result, error) {
	tx, err := p.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("트랜잭션 시작 실패: %w", err)
	}
	defer tx.Rollback()

	// 1. 해당 사이트 소유의 비용 행 삭제
	// 다른 사이트가 같은 키 삼중쌍을 쓸 수 있으므로 키가 아닌 사이트로 지운다
	if _, err := tx.Exec(`DELETE FROM pif_inflight_costs WHERE site = ?`, site); err != nil {
		return nil, fmt.Errorf("인플라이트 비용 삭제 실패: %w", err)
	}

	// 2. 해당 사이트 레코드 삭제
	if _, err := tx.Exec(`DELETE FROM pif_inflight WHERE site = ?`, site); err != nil {
		return nil, fmt.Errorf("인플라이트 레코드 삭제 실패: %w", err)
	}

	// 3. 스테이징 레코드 삽입 (제출 시각 스탬프)
	recResult, err := tx.Exec(`
		INSERT INTO pif_inflight (
			request_id, subject_id, line_number, status, change_type, accounting_type,
			category, segment, opco, site, original_date, revised_date, issue_ref,
			justification, prior_year_spend, retain_flag, include_flag, submission_id, submitted_at
		)
		SELECT request_id, subject_id, line_number, status, change_type, accounting_type,
		       category, segment, opco, site, original_date, revised_date, issue_ref,
		       justification, prior_year_spend, retain_flag, include_flag, submission_id, CURRENT_TIMESTAMP
		FROM pif_staging
		WHERE site = ?
	`, site)
	if err != nil {
		return nil, fmt.Errorf("인플라이트 레코드 삽입 실패: %w", err)
	}

	// 4. 해당 레코드들의 비용 행 삽입 (소유 사이트 스탬프)
	costResult, err := tx.Exec(`
		INSERT INTO pif_inflight_costs (
			request_id, subject_id, line_number, site, scenario, fiscal_year,
			requested_value, baseline_value, variance_value, submitted_at
		)
		SELECT c.request_id, c.subject_id, c.line_number, ?, c.scenario, c.fiscal_year,
		       c.requested_value, c.baseline_value, c.variance_value, CURRENT_TIMESTAMP
		FROM pif_staging_costs c
		WHERE (c.request_id, c.subject_id, c.line_number) IN (
			SELECT request_id, subject_id, line_number
			FROM pif_staging WHERE site = ?
		)
	`, site, site)
	if err != nil {
		return nil, fmt.Errorf("인플라이트 비용 삽입 실패: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("커밋 실패: %w", err)
	}

	projects, _ := recResult.RowsAffected()
	costs, _ := costResult.RowsAffected()

	return &Result{
		Site:           site,
		ProjectsMoved:  int(projects),
		CostLinesMoved: int(costs),
	}, nil
}
