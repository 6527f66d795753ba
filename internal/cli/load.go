package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/n0roo/pif-kit/internal/extract"
	"github.com/n0roo/pif-kit/internal/model"
	"github.com/n0roo/pif-kit/internal/staging"
	"github.com/spf13/cobra"
)

var (
	loadSite      string
	loadCostsPath string
)

var loadCmd = &cobra.Command{
	Use:   "load <records.csv>",
	Short: "추출본을 스테이징에 적재",
	Long: `스프레드시트 추출본(CSV)을 스테이징 영역에 적재합니다.

스테이징은 전역 공유 영역입니다. 적재할 때마다 이전 제출분을 전부
비우고 새 배치로 교체합니다. --costs로 비용 추출본을 함께 적재합니다.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVar(&loadSite, "site", "", "제출 사이트 (필수)")
	loadCmd.Flags().StringVar(&loadCostsPath, "costs", "", "비용 추출본 CSV 경로")
	loadCmd.MarkFlagRequired("site")
}

func getStagingStore() (*staging.Store, func(), error) {
	database, cleanup, err := openDatabase()
	if err != nil {
		return nil, nil, err
	}
	return staging.NewStore(database), cleanup, nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if err := model.ValidateWriteSite(loadSite, cfg.Sites.Known); err != nil {
		return err
	}

	records, err := extract.ReadRecords(args[0])
	if err != nil {
		return err
	}

	var costLines []model.CostLine
	if loadCostsPath != "" {
		costLines, err = extract.ReadCostLines(loadCostsPath)
		if err != nil {
			return err
		}
	}

	store, cleanup, err := getStagingStore()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := store.Load(loadSite, records, costLines)
	if err != nil {
		return err
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(result)
		return nil
	}

	fmt.Printf("✓ 스테이징 적재 완료: %s\n", result.Site)
	fmt.Printf("  제출 ID: %s\n", result.SubmissionID)
	fmt.Printf("  레코드 %d건 / 비용 %d건\n", result.Records, result.CostLines)
	if verbose {
		fmt.Printf("  DB: %s\n", GetDBPath())
	}

	return nil
}
