package validate

import (
	"fmt"
	"math"

	"github.com/n0roo/pif-kit/internal/db"
	"github.com/n0roo/pif-kit/internal/model"
)

// Severity classifies a finding
type Severity string

const (
	SeverityBlocking Severity = "BLOCKING"
	SeverityAdvisory Severity = "ADVISORY"
)

// FindingType identifies the failed check
type FindingType string

const (
	TypeMissingField         FindingType = "missing_field"
	TypeOutOfRange           FindingType = "out_of_range"
	TypeDuplicateKey         FindingType = "duplicate_key"
	TypeMissingJustification FindingType = "missing_justification"
	TypeOrphanCost           FindingType = "orphan_cost"
	TypeInvalidScenario      FindingType = "invalid_scenario"
	TypeVarianceAdvisory     FindingType = "variance_advisory"
)

// DefaultVarianceThreshold is the advisory cutoff for cost variances
const DefaultVarianceThreshold = 1_000_000.0

// Segment 코드 상한 (운영사 세그먼트 코드는 3자리)
const segmentCeiling = 1000

// Finding is one validation result row
type Finding struct {
	Severity Severity    `json:"severity"`
	Type     FindingType `json:"type"`
	Message  string      `json:"message"`
	Key      model.Key   `json:"key"`
	Site     string      `json:"site,omitempty"`
}

// Report is the ordered finding list with gate counts
type Report struct {
	Site          string    `json:"site"`
	Findings      []Finding `json:"findings"`
	BlockingCount int       `json:"blocking_count"`
	AdvisoryCount int       `json:"advisory_count"`
}

// Blocked reports whether promotion must be refused
func (r *Report) Blocked() bool {
	return r.BlockingCount > 0
}

// Validator scans staging content and produces findings
type Validator struct {
	db                db.Database
	varianceThreshold float64
}

// NewValidator creates a validator with the given advisory threshold
func NewValidator(database db.Database, varianceThreshold float64) *Validator {
	if varianceThreshold <= 0 {
		varianceThreshold = DefaultVarianceThreshold
	}
	return &Validator{db: database, varianceThreshold: varianceThreshold}
}

// Run validates the current staging batch for the submitting site.
// 검사 순서는 리포트 가독성을 위한 것으로, 결과에는 영향이 없다.
func (v *Validator) Run(site string) (*Report, error) {
	records, err := v.loadRecords()
	if err != nil {
		return nil, fmt.Errorf("스테이징 레코드 조회 실패: %w", err)
	}
	costs, err := v.loadCostLines()
	if err != nil {
		return nil, fmt.Errorf("스테이징 비용 조회 실패: %w", err)
	}

	report := &Report{Site: site}

	// 1. 필수 필드
	report.add(checkRequiredFields(records)...)

	// 2. 범위/타입
	report.add(checkRanges(records)...)

	// 3. 중복 키 (제출 사이트 범위만)
	report.add(checkDuplicates(records, site)...)

	// 4. 승인 상태의 사유 필수
	report.add(checkJustification(records)...)

	// 5. 고아 비용 행
	report.add(checkOrphans(records, costs)...)

	// 6. 시나리오 enum
	report.add(checkScenarios(costs)...)

	// 7. 편차 임계 초과 (권고만, 승격 차단 안 함)
	report.add(checkVariance(costs, v.varianceThreshold)...)

	return report, nil
}

func (r *Report) add(findings ...Finding) {
	for _, f := range findings {
		r.Findings = append(r.Findings, f)
		if f.Severity == SeverityBlocking {
			r.BlockingCount++
		} else {
			r.AdvisoryCount++
		}
	}
}

func checkRequiredFields(records []model.ProjectRecord) []Finding {
	var findings []Finding
	for _, rec := range records {
		if rec.Key.RequestID == "" || rec.Key.SubjectID == "" {
			findings = append(findings, Finding{
				Severity: SeverityBlocking,
				Type:     TypeMissingField,
				Message:  "요청 ID 또는 대상 ID가 비어 있습니다",
				Key:      rec.Key,
				Site:     rec.Site,
			})
		}
		if rec.Site == "" {
			findings = append(findings, Finding{
				Severity: SeverityBlocking,
				Type:     TypeMissingField,
				Message:  "사이트가 비어 있습니다",
				Key:      rec.Key,
			})
		}
		if rec.ChangeType == "" {
			findings = append(findings, Finding{
				Severity: SeverityBlocking,
				Type:     TypeMissingField,
				Message:  "변경 유형이 비어 있습니다",
				Key:      rec.Key,
				Site:     rec.Site,
			})
		}
	}
	return findings
}

func checkRanges(records []model.ProjectRecord) []Finding {
	var findings []Finding
	for _, rec := range records {
		if rec.Segment < 0 || rec.Segment >= segmentCeiling {
			findings = append(findings, Finding{
				Severity: SeverityBlocking,
				Type:     TypeOutOfRange,
				Message:  fmt.Sprintf("세그먼트 코드 범위 초과: %d (0 이상 %d 미만)", rec.Segment, segmentCeiling),
				Key:      rec.Key,
				Site:     rec.Site,
			})
		}
		if rec.Key.LineNumber < 1 {
			findings = append(findings, Finding{
				Severity: SeverityBlocking,
				Type:     TypeOutOfRange,
				Message:  fmt.Sprintf("line_number는 1 이상이어야 합니다: %d", rec.Key.LineNumber),
				Key:      rec.Key,
				Site:     rec.Site,
			})
		}
	}
	return findings
}

// checkDuplicates groups by full composite key, restricted to the submitting
// site. 같은 배치에 다른 사이트 행이 섞여 있어도 중복으로 치지 않는다.
func checkDuplicates(records []model.ProjectRecord, site string) []Finding {
	groups := make(map[model.Key]int)
	for _, rec := range records {
		if rec.Site != site {
			continue
		}
		groups[rec.Key]++
	}

	var findings []Finding
	for _, rec := range records {
		if rec.Site != site {
			continue
		}
		if groups[rec.Key] > 1 {
			findings = append(findings, Finding{
				Severity: SeverityBlocking,
				Type:     TypeDuplicateKey,
				Message:  fmt.Sprintf("중복 키: %s (%d건)", rec.Key, groups[rec.Key]),
				Key:      rec.Key,
				Site:     rec.Site,
			})
			groups[rec.Key] = -groups[rec.Key] // 그룹당 1회만 보고
		}
	}
	return findings
}

func checkJustification(records []model.ProjectRecord) []Finding {
	var findings []Finding
	for _, rec := range records {
		if model.IsApprovedLike(rec.Status) && rec.Justification == "" {
			findings = append(findings, Finding{
				Severity: SeverityBlocking,
				Type:     TypeMissingJustification,
				Message:  fmt.Sprintf("상태 '%s'에는 사유가 필요합니다 (Missing Justification)", rec.Status),
				Key:      rec.Key,
				Site:     rec.Site,
			})
		}
	}
	return findings
}

func checkOrphans(records []model.ProjectRecord, costs []model.CostLine) []Finding {
	known := make(map[model.Key]bool, len(records))
	for _, rec := range records {
		known[rec.Key] = true
	}

	var findings []Finding
	for _, c := range costs {
		if !known[c.Key] {
			findings = append(findings, Finding{
				Severity: SeverityBlocking,
				Type:     TypeOrphanCost,
				Message:  fmt.Sprintf("비용 행에 대응하는 레코드가 없습니다: %s %s/%s", c.Key, c.Scenario, c.FiscalYear),
				Key:      c.Key,
			})
		}
	}
	return findings
}

func checkScenarios(costs []model.CostLine) []Finding {
	var findings []Finding
	for _, c := range costs {
		if !model.IsValidScenario(c.Scenario) {
			findings = append(findings, Finding{
				Severity: SeverityBlocking,
				Type:     TypeInvalidScenario,
				Message:  fmt.Sprintf("유효하지 않은 시나리오: '%s' (가능: %v)", c.Scenario, model.ValidScenarios),
				Key:      c.Key,
			})
		}
	}
	return findings
}

func checkVariance(costs []model.CostLine, threshold float64) []Finding {
	var findings []Finding
	for _, c := range costs {
		if math.Abs(c.VarianceValue) > threshold {
			findings = append(findings, Finding{
				Severity: SeverityAdvisory,
				Type:     TypeVarianceAdvisory,
				Message:  fmt.Sprintf("편차 %.0f가 임계값 %.0f를 초과합니다 (%s/%s)", c.VarianceValue, threshold, c.Scenario, c.FiscalYear),
				Key:      c.Key,
			})
		}
	}
	return findings
}

func (v *Validator) loadRecords() ([]model.ProjectRecord, error) {
	rows, err := v.db.Query(`
		SELECT request_id, subject_id, line_number, status, change_type, site, segment, justification
		FROM pif_staging
		ORDER BY request_id, subject_id, line_number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ProjectRecord
	for rows.Next() {
		var rec model.ProjectRecord
		if err := rows.Scan(
			&rec.Key.RequestID, &rec.Key.SubjectID, &rec.Key.LineNumber,
			&rec.Status, &rec.ChangeType, &rec.Site, &rec.Segment, &rec.Justification,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (v *Validator) loadCostLines() ([]model.CostLine, error) {
	rows, err := v.db.Query(`
		SELECT request_id, subject_id, line_number, scenario, fiscal_year, variance_value
		FROM pif_staging_costs
		ORDER BY request_id, subject_id, line_number, scenario, fiscal_year
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var costs []model.CostLine
	for rows.Next() {
		var c model.CostLine
		var scenario string
		if err := rows.Scan(
			&c.Key.RequestID, &c.Key.SubjectID, &c.Key.LineNumber,
			&scenario, &c.FiscalYear, &c.VarianceValue,
		); err != nil {
			return nil, err
		}
		c.Scenario = model.Scenario(scenario)
		costs = append(costs, c)
	}
	return costs, rows.Err()
}
