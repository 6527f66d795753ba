package archive

import (
	"fmt"

	"github.com/n0roo/pif-kit/internal/db"
)

// Result contains archival counts
type Result struct {
	Site              string `json:"site"`
	ProjectsArchived  int    `json:"projects_archived"`
	CostLinesArchived int    `json:"cost_lines_archived"`
}

// Archiver moves retained records from inflight into the approved store
type Archiver struct {
	db db.Database
}

// NewArchiver creates a new archiver
func NewArchiver(database db.Database) *Archiver {
	return &Archiver{db: database}
}

// 보관 대상: retain과 include가 모두 참인 행 (둘 중 하나로는 부족)
const eligibleFilter = `retain_flag = 1 AND include_flag = 1 AND site = ?`

// Run archives the site's eligible inflight rows into the approved store.
// 키 기준 upsert이므로 같은 레코드를 다시 보관해도 이력 행은 중복되지 않는다.
func (a *Archiver) Run(site string) (*Result, error) {
	tx, err := a.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("트랜잭션 시작 실패: %w", err)
	}
	defer tx.Rollback()

	// 대상 건수 확인
	var eligible int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM pif_inflight WHERE `+eligibleFilter, site).Scan(&eligible); err != nil {
		return nil, fmt.Errorf("보관 대상 조회 실패: %w", err)
	}

	// 1. 레코드 upsert (키 존재 시 전체 필드 갱신 + 승인 시각 재스탬프)
	if _, err := tx.Exec(`
		INSERT INTO pif_approved (
			request_id, subject_id, line_number, status, change_type, accounting_type,
			category, segment, opco, site, original_date, revised_date, issue_ref,
			justification, prior_year_spend, retain_flag, include_flag, approved_at
		)
		SELECT request_id, subject_id, line_number, status, change_type, accounting_type,
		       category, segment, opco, site, original_date, revised_date, issue_ref,
		       justification, prior_year_spend, retain_flag, include_flag, CURRENT_TIMESTAMP
		FROM pif_inflight
		WHERE `+eligibleFilter+`
		ON CONFLICT (request_id, subject_id, line_number) DO UPDATE SET
			status = excluded.status,
			change_type = excluded.change_type,
			accounting_type = excluded.accounting_type,
			category = excluded.category,
			segment = excluded.segment,
			opco = excluded.opco,
			site = excluded.site,
			original_date = excluded.original_date,
			revised_date = excluded.revised_date,
			issue_ref = excluded.issue_ref,
			justification = excluded.justification,
			prior_year_spend = excluded.prior_year_spend,
			retain_flag = excluded.retain_flag,
			include_flag = excluded.include_flag,
			approved_at = excluded.approved_at
	`, site); err != nil {
		return nil, fmt.Errorf("이력 upsert 실패: %w", err)
	}

	// 2. 해당 키의 기존 이력 비용 행 제거 후 현재 비용으로 재삽입
	// 비용 셀 개별 식별자가 없으므로 키 단위로 전체 교체한다.
	// 승인 이력의 키는 전역이므로 이전 소유 사이트의 비용 행도 교체 대상이다.
	if _, err := tx.Exec(`
		DELETE FROM pif_approved_costs
		WHERE (request_id, subject_id, line_number) IN (
			SELECT request_id, subject_id, line_number
			FROM pif_inflight WHERE `+eligibleFilter+`
		)
	`, site); err != nil {
		return nil, fmt.Errorf("이력 비용 삭제 실패: %w", err)
	}

	// 인플라이트 쪽은 다른 사이트가 같은 키를 쓸 수 있으므로 사이트로도 거른다
	costResult, err := tx.Exec(`
		INSERT INTO pif_approved_costs (
			request_id, subject_id, line_number, site, scenario, fiscal_year,
			requested_value, baseline_value, variance_value, approved_at
		)
		SELECT c.request_id, c.subject_id, c.line_number, c.site, c.scenario, c.fiscal_year,
		       c.requested_value, c.baseline_value, c.variance_value, CURRENT_TIMESTAMP
		FROM pif_inflight_costs c
		WHERE c.site = ?
		  AND (c.request_id, c.subject_id, c.line_number) IN (
			SELECT request_id, subject_id, line_number
			FROM pif_inflight WHERE `+eligibleFilter+`
		)
	`, site, site)
	if err != nil {
		return nil, fmt.Errorf("이력 비용 삽입 실패: %w", err)
	}

	// 3. 보관 완료된 행을 인플라이트에서 제거 (비용 먼저)
	if _, err := tx.Exec(`
		DELETE FROM pif_inflight_costs
		WHERE site = ?
		  AND (request_id, subject_id, line_number) IN (
			SELECT request_id, subject_id, line_number
			FROM pif_inflight WHERE `+eligibleFilter+`
		)
	`, site, site); err != nil {
		return nil, fmt.Errorf("인플라이트 비용 정리 실패: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM pif_inflight WHERE `+eligibleFilter, site); err != nil {
		return nil, fmt.Errorf("인플라이트 레코드 정리 실패: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("커밋 실패: %w", err)
	}

	costs, _ := costResult.RowsAffected()

	return &Result{
		Site:              site,
		ProjectsArchived:  eligible,
		CostLinesArchived: int(costs),
	}, nil
}
