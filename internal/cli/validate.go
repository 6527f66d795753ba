package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/n0roo/pif-kit/internal/tui"
	"github.com/n0roo/pif-kit/internal/validate"
	"github.com/spf13/cobra"
)

var (
	validateSite string
	validateTUI  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "스테이징 배치 검증",
	Long: `스테이징 배치를 검증하고 결과를 보고합니다.

차단(BLOCKING) 결과는 승격을 막습니다. 권고(ADVISORY) 결과는
보고만 되며 승격을 막지 않습니다. 검증만 수행하고 아무 것도
쓰지 않습니다.

종료 코드: 차단 결과가 있으면 2, 없으면 0.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateSite, "site", "", "검증 대상 사이트 (필수)")
	validateCmd.Flags().BoolVar(&validateTUI, "tui", false, "대화형 결과 브라우저 실행")
	validateCmd.MarkFlagRequired("site")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	database, cleanup, err := openDatabase()
	if err != nil {
		return err
	}
	defer cleanup()

	validator := validate.NewValidator(database, cfg.Validation.VarianceThreshold)
	report, err := validator.Run(validateSite)
	if err != nil {
		return err
	}

	if validateTUI {
		return tui.Run(report)
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(report)
	} else {
		printReport(report)
	}

	if report.Blocked() {
		return &exitError{code: 2}
	}
	return nil
}

func printReport(report *validate.Report) {
	if len(report.Findings) == 0 {
		fmt.Printf("✓ 검증 통과: %s (발견 사항 없음)\n", report.Site)
		return
	}

	fmt.Printf("검증 결과: %s — 차단 %d건 / 권고 %d건\n\n",
		report.Site, report.BlockingCount, report.AdvisoryCount)

	fmt.Printf("%-10s %-22s %-24s %s\n", "SEVERITY", "TYPE", "KEY", "MESSAGE")
	fmt.Println("--------------------------------------------------------------------------------")
	for _, f := range report.Findings {
		fmt.Printf("%-10s %-22s %-24s %s\n", f.Severity, f.Type, f.Key.String(), f.Message)
	}

	if report.Blocked() {
		fmt.Println("\n✗ 차단 결과가 있어 승격할 수 없습니다.")
	} else {
		fmt.Println("\n✓ 권고 결과만 있습니다. 승격 가능합니다.")
	}
}
