package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/n0roo/pif-kit/internal/model"
)

// 레코드 추출본 필수 컬럼
var requiredRecordColumns = []string{"request_id", "subject_id", "site"}

// 비용 추출본 필수 컬럼
var requiredCostColumns = []string{"request_id", "subject_id", "scenario", "fiscal_year"}

// ReadRecords parses a record extract CSV into project records.
// 컬럼 매핑은 추출본 책임이며, 코어는 §3 식별 모델 형태만 받는다.
func ReadRecords(path string) ([]model.ProjectRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("추출 파일 열기 실패: %w", err)
	}
	defer f.Close()

	return ParseRecords(f)
}

// ParseRecords parses record rows from a reader
func ParseRecords(r io.Reader) ([]model.ProjectRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("헤더 읽기 실패: %w", err)
	}

	cols, err := indexColumns(header, requiredRecordColumns)
	if err != nil {
		return nil, err
	}

	var records []model.ProjectRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%d행 읽기 실패: %w", line, err)
		}

		rec := model.ProjectRecord{
			Key: model.Key{
				RequestID:  field(row, cols, "request_id"),
				SubjectID:  field(row, cols, "subject_id"),
				LineNumber: parseInt(field(row, cols, "line_number"), 1),
			},
			Status:         field(row, cols, "status"),
			ChangeType:     field(row, cols, "change_type"),
			AccountingType: field(row, cols, "accounting_type"),
			Category:       field(row, cols, "category"),
			Segment:        parseInt(field(row, cols, "segment"), 0),
			OpCo:           field(row, cols, "opco"),
			Site:           field(row, cols, "site"),
			// 날짜 필드는 "Annually" 같은 비날짜 토큰도 있으므로 원문 유지
			OriginalDate:   field(row, cols, "original_date"),
			RevisedDate:    field(row, cols, "revised_date"),
			IssueRef:       field(row, cols, "issue_ref"),
			Justification:  field(row, cols, "justification"),
			PriorYearSpend: parseFloat(field(row, cols, "prior_year_spend")),
			Retain:         parseBool(field(row, cols, "retain")),
			Include:        parseBool(field(row, cols, "include")),
		}
		records = append(records, rec)
	}

	return records, nil
}

// ReadCostLines parses a cost extract CSV into cost lines
func ReadCostLines(path string) ([]model.CostLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("추출 파일 열기 실패: %w", err)
	}
	defer f.Close()

	return ParseCostLines(f)
}

// ParseCostLines parses cost rows from a reader.
// 편차는 적재 시점에 계산해 저장한다 (이후 단계에서 재계산하지 않음).
func ParseCostLines(r io.Reader) ([]model.CostLine, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("헤더 읽기 실패: %w", err)
	}

	cols, err := indexColumns(header, requiredCostColumns)
	if err != nil {
		return nil, err
	}

	var costs []model.CostLine
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%d행 읽기 실패: %w", line, err)
		}

		key := model.Key{
			RequestID:  field(row, cols, "request_id"),
			SubjectID:  field(row, cols, "subject_id"),
			LineNumber: parseInt(field(row, cols, "line_number"), 1),
		}
		costs = append(costs, model.NewCostLine(
			key,
			model.Scenario(field(row, cols, "scenario")),
			field(row, cols, "fiscal_year"),
			parseFloat(field(row, cols, "requested_value")),
			parseFloat(field(row, cols, "baseline_value")),
		))
	}

	return costs, nil
}

// indexColumns maps header names to column positions
func indexColumns(header, required []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("필수 컬럼 '%s'이(가) 없습니다", name)
		}
	}
	return cols, nil
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	// 통화 기호/구분자 제거
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes", "true", "1":
		return true
	default:
		return false
	}
}
