package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/n0roo/pif-kit/internal/model"
	"github.com/n0roo/pif-kit/internal/report"
	"github.com/spf13/cobra"
)

var (
	reportSite  string
	reportStage string
	reportWide  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "사이트/선단 집계 조회",
	Long: `인플라이트 또는 승인 이력 저장소를 읽기 전용으로 집계합니다.

--site FLEET 또는 --site 생략 시 전체 사이트를 집계합니다.
FLEET은 가상 사이트이며 쓰기 명령에서는 거부됩니다.
--wide는 회계연도를 컬럼으로 펼친 피벗 뷰를 출력합니다.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportSite, "site", "", "대상 사이트 (생략 시 FLEET 전체)")
	reportCmd.Flags().StringVar(&reportStage, "stage", "inflight", "조회 단계 (inflight|approved)")
	reportCmd.Flags().BoolVar(&reportWide, "wide", false, "회계연도 피벗 뷰")
}

func getReportService() (*report.Service, func(), error) {
	database, cleanup, err := openDatabase()
	if err != nil {
		return nil, nil, err
	}
	return report.NewService(database), cleanup, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := getReportService()
	if err != nil {
		return err
	}
	defer cleanup()

	stage := report.Stage(reportStage)

	if reportWide {
		return runWideReport(svc, stage)
	}

	// 사이트 미지정 또는 FLEET: 전체 집계
	if reportSite == "" || reportSite == model.FleetSite {
		summaries, err := svc.FleetSummary(stage)
		if err != nil {
			return err
		}
		if jsonOut {
			json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"stage": stage,
				"sites": summaries,
			})
			return nil
		}
		printSummaries(stage, summaries)
		return nil
	}

	summary, err := svc.SiteSummary(stage, reportSite)
	if err != nil {
		return err
	}
	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(summary)
		return nil
	}
	printSummaries(stage, []report.SiteSummary{*summary})
	return nil
}

func printSummaries(stage report.Stage, summaries []report.SiteSummary) {
	if len(summaries) == 0 {
		fmt.Printf("%s 저장소가 비어 있습니다.\n", stage)
		return
	}

	fmt.Printf("%-14s %8s %8s %8s %16s %16s\n",
		"SITE", "RECORDS", "COSTS", "ELIGIBLE", "REQUESTED", "VARIANCE")
	fmt.Println("--------------------------------------------------------------------------")
	for _, s := range summaries {
		fmt.Printf("%-14s %8d %8d %8d %16.2f %16.2f\n",
			s.Site, s.Records, s.CostLines, s.ArchiveEligible,
			s.TotalRequested, s.TotalVariance)
	}
}

func runWideReport(svc *report.Service, stage report.Stage) error {
	rows, years, err := svc.WideRows(stage, reportSite)
	if err != nil {
		return err
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"stage": stage,
			"years": years,
			"rows":  rows,
		})
		return nil
	}

	if len(rows) == 0 {
		fmt.Println("출력할 행이 없습니다.")
		return nil
	}

	fmt.Printf("%-24s %-12s %-10s", "KEY", "SITE", "SCENARIO")
	for _, y := range years {
		fmt.Printf(" %12s", y)
	}
	fmt.Printf(" %14s\n", "TOTAL")

	for _, r := range rows {
		fmt.Printf("%-24s %-12s %-10s", r.Key.String(), r.Site, r.Scenario)
		for _, y := range years {
			fmt.Printf(" %12.2f", r.Values[y])
		}
		fmt.Printf(" %14.2f\n", r.Total)
	}

	return nil
}
