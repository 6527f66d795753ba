package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/n0roo/pif-kit/internal/orchestrator"
	"github.com/spf13/cobra"
)

var finalizeSite string

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "검증 → 승격 → 보관 → 감사 로그",
	Long: `전체 파이프라인을 실행합니다.

1. 스테이징 배치 검증 (차단 결과가 있으면 중단)
2. 사이트 인플라이트 작업본 교체
3. 보관 대상(retain+include)을 승인 이력에 upsert 후 인플라이트에서 제거
4. 감사 로그 기록 (실패해도 작업은 유지)

보관 단계가 실패해도 승격 결과는 되돌리지 않습니다. 인플라이트
스냅샷은 유효하게 남으며, finalize를 다시 실행하면 보관만 재시도됩니다.`,
	RunE: runFinalize,
}

func init() {
	rootCmd.AddCommand(finalizeCmd)
	finalizeCmd.Flags().StringVar(&finalizeSite, "site", "", "대상 사이트 (필수)")
	finalizeCmd.MarkFlagRequired("site")
}

func runFinalize(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := getOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.Finalize(finalizeSite)
	if errors.Is(err, orchestrator.ErrValidationBlocked) {
		if jsonOut {
			json.NewEncoder(os.Stdout).Encode(result)
		} else {
			printReport(result.Report)
		}
		return &exitError{code: 2}
	}

	var stageErr *orchestrator.StageError
	if errors.As(err, &stageErr) && stageErr.Stage == orchestrator.StageArchive {
		// 승격은 완료된 상태. 보관 실패만 별도 보고한다.
		if result.Promote != nil {
			fmt.Printf("✓ 승격 완료: 레코드 %d건 / 비용 %d건\n",
				result.Promote.ProjectsMoved, result.Promote.CostLinesMoved)
		}
		fmt.Fprintf(os.Stderr, "✗ 보관 실패: %v\n", stageErr.Err)
		fmt.Fprintln(os.Stderr, "  finalize를 다시 실행하면 보관을 재시도합니다.")
		return &exitError{code: 1}
	}
	if err != nil {
		return err
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(result)
		return nil
	}

	if result.Report.AdvisoryCount > 0 {
		fmt.Printf("! 권고 %d건 (승격에는 영향 없음)\n", result.Report.AdvisoryCount)
	}
	fmt.Printf("✓ 확정 완료: %s\n", finalizeSite)
	fmt.Printf("  승격: 레코드 %d건 / 비용 %d건\n",
		result.Promote.ProjectsMoved, result.Promote.CostLinesMoved)
	fmt.Printf("  보관: 레코드 %d건 / 비용 %d건\n",
		result.Archive.ProjectsArchived, result.Archive.CostLinesArchived)

	return nil
}
