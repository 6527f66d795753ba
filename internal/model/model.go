package model

import (
	"fmt"
	"strings"
)

// Key identifies one detail line of one change request for one subject.
// line_number는 나중에 추가된 확장 키 (기본값 1)
type Key struct {
	RequestID  string `json:"request_id"`
	SubjectID  string `json:"subject_id"`
	LineNumber int    `json:"line_number"`
}

// String formats the key for messages and reports
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d", k.RequestID, k.SubjectID, k.LineNumber)
}

// Normalize applies the line_number default
func (k Key) Normalize() Key {
	if k.LineNumber == 0 {
		k.LineNumber = 1
	}
	return k
}

// Scenario is the cost line scenario classification
type Scenario string

const (
	ScenarioPlan     Scenario = "Plan"
	ScenarioForecast Scenario = "Forecast"
)

// ValidScenarios lists all valid cost line scenarios
var ValidScenarios = []Scenario{ScenarioPlan, ScenarioForecast}

// IsValidScenario checks scenario enum membership
func IsValidScenario(s Scenario) bool {
	for _, v := range ValidScenarios {
		if v == s {
			return true
		}
	}
	return false
}

// ApprovedLikeStatuses are terminal statuses that require a justification
var ApprovedLikeStatuses = []string{"Approved", "Dispositioned"}

// IsApprovedLike checks whether a lifecycle status is terminal
func IsApprovedLike(status string) bool {
	for _, s := range ApprovedLikeStatuses {
		if strings.EqualFold(strings.TrimSpace(status), s) {
			return true
		}
	}
	return false
}

// ProjectRecord is one PIF change request line
type ProjectRecord struct {
	Key            Key     `json:"key"`
	Status         string  `json:"status"`
	ChangeType     string  `json:"change_type"`
	AccountingType string  `json:"accounting_type"`
	Category       string  `json:"category"`
	Segment        int     `json:"segment"`
	OpCo           string  `json:"opco"`
	Site           string  `json:"site"`
	OriginalDate   string  `json:"original_date"` // 날짜가 아닌 값도 그대로 보존 ("Annually" 등)
	RevisedDate    string  `json:"revised_date"`
	IssueRef       string  `json:"issue_ref"`
	Justification  string  `json:"justification"`
	PriorYearSpend float64 `json:"prior_year_spend"`
	Retain         bool    `json:"retain"`
	Include        bool    `json:"include"`
}

// ArchiveEligible reports archival eligibility (두 플래그 모두 필요)
func (r *ProjectRecord) ArchiveEligible() bool {
	return r.Retain && r.Include
}

// CostLine is one scenario/fiscal-year cost row for a record
type CostLine struct {
	Key            Key      `json:"key"`
	Scenario       Scenario `json:"scenario"`
	FiscalYear     string   `json:"fiscal_year"` // 회계연도 말일 (ISO)
	RequestedValue float64  `json:"requested_value"`
	BaselineValue  float64  `json:"baseline_value"`
	VarianceValue  float64  `json:"variance_value"` // requested - baseline, 저장값 유지
}

// NewCostLine builds a cost line with the variance stamped at creation
func NewCostLine(key Key, scenario Scenario, fiscalYear string, requested, baseline float64) CostLine {
	return CostLine{
		Key:            key.Normalize(),
		Scenario:       scenario,
		FiscalYear:     fiscalYear,
		RequestedValue: requested,
		BaselineValue:  baseline,
		VarianceValue:  requested - baseline,
	}
}
