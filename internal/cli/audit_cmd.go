package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/n0roo/pif-kit/internal/audit"
	"github.com/spf13/cobra"
)

var (
	auditSite  string
	auditLimit int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "감사 로그 조회",
	Long:  `확정 작업의 감사 로그를 최신순으로 출력합니다.`,
	RunE:  runAuditList,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().StringVar(&auditSite, "site", "", "사이트 필터")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "출력 건수")
}

func runAuditList(cmd *cobra.Command, args []string) error {
	database, cleanup, err := openDatabase()
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := audit.NewLogger(database).List(auditSite, auditLimit)
	if err != nil {
		return err
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"entries": entries,
		})
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("감사 로그가 없습니다.")
		return nil
	}

	fmt.Printf("%-20s %-10s %-12s %-10s %8s %8s\n",
		"TIME", "ACTION", "SITE", "ACTOR", "RECORDS", "COSTS")
	fmt.Println("--------------------------------------------------------------------------")
	for _, e := range entries {
		fmt.Printf("%-20s %-10s %-12s %-10s %8d %8d\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Action, e.Site, e.Actor, e.RecordCount, e.CostCount)
	}

	return nil
}
