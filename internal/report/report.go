package report

import (
	"fmt"
	"sort"

	"github.com/n0roo/pif-kit/internal/db"
	"github.com/n0roo/pif-kit/internal/model"
)

// Stage selects which lifecycle store a view reads
type Stage string

const (
	StageInflight Stage = "inflight"
	StageApproved Stage = "approved"
)

// 단계 → 테이블 매핑 (쿼리 조립용 화이트리스트)
var stageTables = map[Stage][2]string{
	StageInflight: {"pif_inflight", "pif_inflight_costs"},
	StageApproved: {"pif_approved", "pif_approved_costs"},
}

// SiteSummary aggregates one site's slice of a store
type SiteSummary struct {
	Site            string  `json:"site"`
	Records         int     `json:"records"`
	CostLines       int     `json:"cost_lines"`
	ArchiveEligible int     `json:"archive_eligible,omitempty"`
	TotalRequested  float64 `json:"total_requested"`
	TotalVariance   float64 `json:"total_variance"`
}

// WideRow is one pivoted record line: fiscal years as columns
type WideRow struct {
	Key      model.Key          `json:"key"`
	Site     string             `json:"site"`
	Status   string             `json:"status"`
	Scenario model.Scenario     `json:"scenario"`
	Values   map[string]float64 `json:"values"` // fiscal_year -> requested_value
	Total    float64            `json:"total"`
}

// Service provides read-only views over the working and historical stores
type Service struct {
	db db.Database
}

// NewService creates a new report service
func NewService(database db.Database) *Service {
	return &Service{db: database}
}

// SiteSummary returns aggregate counts for one site in one stage
func (s *Service) SiteSummary(stage Stage, site string) (*SiteSummary, error) {
	tables, ok := stageTables[stage]
	if !ok {
		return nil, fmt.Errorf("유효하지 않은 단계: %s", stage)
	}

	summary := &SiteSummary{Site: site}

	err := s.db.QueryRow(fmt.Sprintf(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN retain_flag = 1 AND include_flag = 1 THEN 1 ELSE 0 END), 0)
		FROM %s WHERE site = ?
	`, tables[0]), site).Scan(&summary.Records, &summary.ArchiveEligible)
	if err != nil {
		return nil, fmt.Errorf("레코드 집계 실패: %w", err)
	}

	// 비용 행은 소유 사이트를 직접 들고 있다 (키 삼중쌍은 사이트 간 중복 가능)
	err = s.db.QueryRow(fmt.Sprintf(`
		SELECT COUNT(*), COALESCE(SUM(c.requested_value), 0), COALESCE(SUM(c.variance_value), 0)
		FROM %s c
		WHERE c.site = ?
	`, tables[1]), site).Scan(&summary.CostLines, &summary.TotalRequested, &summary.TotalVariance)
	if err != nil {
		return nil, fmt.Errorf("비용 집계 실패: %w", err)
	}

	return summary, nil
}

// FleetSummary returns per-site summaries across all sites, read-only.
// 가상 FLEET 사이트 뷰: 쓰기 경로와 무관하다.
func (s *Service) FleetSummary(stage Stage) ([]SiteSummary, error) {
	tables, ok := stageTables[stage]
	if !ok {
		return nil, fmt.Errorf("유효하지 않은 단계: %s", stage)
	}

	rows, err := s.db.Query(fmt.Sprintf(`SELECT DISTINCT site FROM %s ORDER BY site`, tables[0]))
	if err != nil {
		return nil, fmt.Errorf("사이트 목록 조회 실패: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var summaries []SiteSummary
	for _, site := range sites {
		summary, err := s.SiteSummary(stage, site)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// WideRows returns the pivoted cost matrix for a site (fiscal years as
// columns). site가 FLEET이면 전체 사이트를 포함한다.
func (s *Service) WideRows(stage Stage, site string) ([]WideRow, []string, error) {
	tables, ok := stageTables[stage]
	if !ok {
		return nil, nil, fmt.Errorf("유효하지 않은 단계: %s", stage)
	}

	query := fmt.Sprintf(`
		SELECT r.request_id, r.subject_id, r.line_number, r.site, r.status,
		       c.scenario, c.fiscal_year, c.requested_value
		FROM %s r
		JOIN %s c
		  ON c.site = r.site
		 AND c.request_id = r.request_id
		 AND c.subject_id = r.subject_id
		 AND c.line_number = r.line_number
	`, tables[0], tables[1])

	var args []interface{}
	if site != "" && site != model.FleetSite {
		query += ` WHERE r.site = ?`
		args = append(args, site)
	}
	query += ` ORDER BY r.site, r.request_id, r.subject_id, r.line_number, c.scenario, c.fiscal_year`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("피벗 조회 실패: %w", err)
	}
	defer rows.Close()

	// FLEET 뷰에서 사이트가 다른 동일 키 행이 합쳐지지 않도록 사이트 포함
	type rowKey struct {
		site     string
		key      model.Key
		scenario model.Scenario
	}
	index := make(map[rowKey]*WideRow)
	var order []rowKey
	yearSet := make(map[string]bool)

	for rows.Next() {
		var key model.Key
		var siteVal, status, scenario, fiscalYear string
		var requested float64
		if err := rows.Scan(&key.RequestID, &key.SubjectID, &key.LineNumber,
			&siteVal, &status, &scenario, &fiscalYear, &requested); err != nil {
			return nil, nil, err
		}

		rk := rowKey{site: siteVal, key: key, scenario: model.Scenario(scenario)}
		wr, ok := index[rk]
		if !ok {
			wr = &WideRow{
				Key:      key,
				Site:     siteVal,
				Status:   status,
				Scenario: model.Scenario(scenario),
				Values:   make(map[string]float64),
			}
			index[rk] = wr
			order = append(order, rk)
		}
		wr.Values[fiscalYear] += requested
		wr.Total += requested
		yearSet[fiscalYear] = true
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var years []string
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Strings(years)

	result := make([]WideRow, 0, len(order))
	for _, rk := range order {
		result = append(result, *index[rk])
	}
	return result, years, nil
}
