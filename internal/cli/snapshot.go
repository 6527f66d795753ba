package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/n0roo/pif-kit/internal/config"
	"github.com/n0roo/pif-kit/internal/orchestrator"
	"github.com/spf13/cobra"
)

var snapshotSite string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "검증 후 인플라이트 반영 (보관 없음)",
	Long: `스테이징 배치를 검증하고, 통과하면 해당 사이트의 인플라이트
작업본을 교체합니다. 보관 단계는 수행하지 않습니다.

차단 검증 결과가 있으면 아무 것도 쓰지 않고 리포트만 출력합니다.`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().StringVar(&snapshotSite, "site", "", "대상 사이트 (필수)")
	snapshotCmd.MarkFlagRequired("site")
}

// resolveActor picks the audit actor name
func resolveActor(cfg *config.Config) string {
	if cfg.Actor != "" {
		return cfg.Actor
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "unknown"
}

func getOrchestrator() (*orchestrator.Service, func(), error) {
	cfg := loadConfig()
	database, cleanup, err := openDatabase()
	if err != nil {
		return nil, nil, err
	}
	svc := orchestrator.NewService(database, cfg.Validation.VarianceThreshold,
		cfg.Sites.Known, resolveActor(cfg))
	return svc, cleanup, nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := getOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.SaveSnapshot(snapshotSite)
	if errors.Is(err, orchestrator.ErrValidationBlocked) {
		if jsonOut {
			json.NewEncoder(os.Stdout).Encode(result)
		} else {
			printReport(result.Report)
		}
		return &exitError{code: 2}
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
	fmt.Printf("✓ 스냅샷 반영 완료: %s\n", snapshotSite)
	fmt.Printf("  레코드 %d건 / 비용 %d건 승격\n",
		result.Promote.ProjectsMoved, result.Promote.CostLinesMoved)

	return nil
}
