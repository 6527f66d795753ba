package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "저장소 상태 요약",
	Long:  `스테이징/인플라이트/승인 저장소의 행 수와 DB 정보를 출력합니다.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	database, cleanup, err := openDatabase()
	if err != nil {
		return err
	}
	defer cleanup()

	counts := make(map[string]int)
	tables := []string{
		"pif_staging", "pif_staging_costs",
		"pif_inflight", "pif_inflight_costs",
		"pif_approved", "pif_approved_costs",
		"audit_log",
	}
	for _, table := range tables {
		var n int
		if err := database.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return fmt.Errorf("%s 조회 실패: %w", table, err)
		}
		counts[table] = n
	}

	version, err := database.GetVersion()
	if err != nil {
		version = 0
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"db_path":        database.Path(),
			"schema_version": version,
			"counts":         counts,
		})
		return nil
	}

	fmt.Println("PIF Kit 상태")
	fmt.Printf("  DB: %s (schema v%d)\n\n", database.Path(), version)
	fmt.Printf("  staging:   레코드 %d / 비용 %d\n", counts["pif_staging"], counts["pif_staging_costs"])
	fmt.Printf("  inflight:  레코드 %d / 비용 %d\n", counts["pif_inflight"], counts["pif_inflight_costs"])
	fmt.Printf("  approved:  레코드 %d / 비용 %d\n", counts["pif_approved"], counts["pif_approved_costs"])
	fmt.Printf("  audit:     %d건\n", counts["audit_log"])

	return nil
}
