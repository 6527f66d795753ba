package orchestrator

import (
	"errors"
	"fmt"
	"os"

	"github.com/n0roo/pif-kit/internal/archive"
	"github.com/n0roo/pif-kit/internal/audit"
	"github.com/n0roo/pif-kit/internal/db"
	"github.com/n0roo/pif-kit/internal/model"
	"github.com/n0roo/pif-kit/internal/promote"
	"github.com/n0roo/pif-kit/internal/validate"
)

// Stage identifies a pipeline step for error reporting
type Stage string

const (
	StageValidate Stage = "validate"
	StagePromote  Stage = "promote"
	StageArchive  Stage = "archive"
)

// ErrValidationBlocked is returned when blocking findings gate the pipeline
var ErrValidationBlocked = errors.New("차단 검증 결과가 있어 중단되었습니다")

// StageError wraps a failure with the stage it occurred in.
// 호출자가 어느 단계까지 반영되었는지 판단할 수 있어야 한다.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s 단계 실패: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// SnapshotResult is the outcome of a save-snapshot run
type SnapshotResult struct {
	Report  *validate.Report `json:"report"`
	Promote *promote.Result  `json:"promote,omitempty"`
}

// FinalizeResult is the outcome of a finalize run
type FinalizeResult struct {
	Report  *validate.Report `json:"report"`
	Promote *promote.Result  `json:"promote,omitempty"`
	Archive *archive.Result  `json:"archive,omitempty"`
}

// Service sequences validate → promote → archive
type Service struct {
	validator *validate.Validator
	promoter  *promote.Promoter
	archiver  *archive.Archiver
	auditor   *audit.Logger
	sites     []string
	actor     string
}

// NewService creates an orchestrator over one database
func NewService(database db.Database, varianceThreshold float64, sites []string, actor string) *Service {
	return &Service{
		validator: validate.NewValidator(database, varianceThreshold),
		promoter:  promote.NewPromoter(database),
		archiver:  archive.NewArchiver(database),
		auditor:   audit.NewLogger(database),
		sites:     sites,
		actor:     actor,
	}
}

// SaveSnapshot validates then promotes the staging batch. No archival.
// 차단 결과가 있으면 아무 것도 쓰지 않고 리포트만 반환한다.
func (s *Service) SaveSnapshot(site string) (*SnapshotResult, error) {
	if err := model.ValidateWriteSite(site, s.sites); err != nil {
		return nil, err
	}

	report, err := s.validator.Run(site)
	if err != nil {
		return nil, &StageError{Stage: StageValidate, Err: err}
	}

	result := &SnapshotResult{Report: report}
	if report.Blocked() {
		return result, ErrValidationBlocked
	}

	moved, err := s.promoter.Commit(site)
	if err != nil {
		return result, &StageError{Stage: StagePromote, Err: err}
	}
	result.Promote = moved

	return result, nil
}

// Finalize validates, promotes, archives, then writes the audit trail.
// 보관 단계 실패는 승격 결과를 되돌리지 않는다. 인플라이트 스냅샷은
// 유효하게 남고, 보관만 재시도하면 된다.
func (s *Service) Finalize(site string) (*FinalizeResult, error) {
	if err := model.ValidateWriteSite(site, s.sites); err != nil {
		return nil, err
	}

	report, err := s.validator.Run(site)
	if err != nil {
		return nil, &StageError{Stage: StageValidate, Err: err}
	}

	result := &FinalizeResult{Report: report}
	if report.Blocked() {
		return result, ErrValidationBlocked
	}

	moved, err := s.promoter.Commit(site)
	if err != nil {
		return result, &StageError{Stage: StagePromote, Err: err}
	}
	result.Promote = moved

	archived, err := s.archiver.Run(site)
	if err != nil {
		return result, &StageError{Stage: StageArchive, Err: err}
	}
	result.Archive = archived

	// 감사 로그는 비핵심: 실패해도 전체 작업을 실패시키지 않는다
	if err := s.auditor.Write(audit.Entry{
		Actor:       s.actor,
		Action:      audit.ActionFinalize,
		Site:        site,
		RecordCount: archived.ProjectsArchived,
		CostCount:   archived.CostLinesArchived,
		Source:      "pifkit",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "경고: %v\n", err)
	}

	return result, nil
}
