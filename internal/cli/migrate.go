package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/n0roo/pif-kit/internal/db"
	"github.com/spf13/cobra"
)

var migrateOutput string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "SQLite → DuckDB 마이그레이션",
	Long: `운영 DB(SQLite)의 전체 저장소를 분석용 DuckDB 파일로 복사합니다.

대상 파일이 이미 있으면 .backup으로 이름을 바꾼 뒤 새로 생성합니다.
이후 PIF_DB_TYPE=duckdb 환경변수로 DuckDB 백엔드를 사용할 수 있습니다.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().StringVar(&migrateOutput, "output", "", "DuckDB 출력 경로 (기본: DB 경로의 .duckdb)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	sqlitePath := GetDBPath()
	if _, err := os.Stat(sqlitePath); os.IsNotExist(err) {
		return fmt.Errorf("SQLite DB가 없습니다: %s", sqlitePath)
	}

	duckdbPath := migrateOutput
	if duckdbPath == "" {
		duckdbPath = db.GetDuckDBPath(sqlitePath)
	}

	result, err := db.MigrateSQLiteToDuckDB(sqlitePath, duckdbPath)
	if err != nil {
		return err
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"source":  sqlitePath,
			"target":  duckdbPath,
			"tables":  result.TablesProcessed,
			"rows":    result.RowsMigrated,
			"errors":  result.Errors,
			"success": len(result.Errors) == 0,
		})
		return nil
	}

	fmt.Printf("✓ 마이그레이션 완료: %s → %s\n", sqlitePath, duckdbPath)
	fmt.Printf("  테이블 %d개 처리\n", result.TablesProcessed)
	if verbose {
		for table, count := range result.RowsMigrated {
			fmt.Printf("  %s: %d행\n", table, count)
		}
	}
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "  ✗ %s\n", e)
	}

	return nil
}
