package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "사이트 목록",
	Long: `설정된 사이트 목록을 출력합니다.

FLEET은 읽기 전용 집계용 가상 사이트이며, load/snapshot/finalize
대상으로는 사용할 수 없습니다.`,
	RunE: runSites,
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

func runSites(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"known":   cfg.Sites.Known,
			"default": cfg.Sites.Default,
			"fleet":   cfg.Sites.Fleet,
		})
		return nil
	}

	fmt.Println("쓰기 가능 사이트:")
	for _, site := range cfg.Sites.Known {
		marker := " "
		if site == cfg.Sites.Default {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, site)
	}
	fmt.Printf("\n읽기 전용 가상 사이트: %s\n", cfg.Sites.Fleet)

	return nil
}
