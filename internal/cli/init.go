package cli

import (
	"fmt"
	"os"

	"github.com/n0roo/pif-kit/internal/config"
	"github.com/n0roo/pif-kit/internal/db"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "프로젝트 초기화",
	Long: `현재 디렉토리에 .pif/config.yaml을 생성하고 DB를 초기화합니다.

이미 설정이 있으면 --force 없이는 덮어쓰지 않습니다.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "기존 설정 덮어쓰기")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	if config.Exists(cwd) && !initForce {
		return fmt.Errorf("설정이 이미 있습니다: %s (--force로 덮어쓰기)", config.Path(cwd))
	}

	cfg := config.DefaultConfig()
	if err := config.Save(cwd, cfg); err != nil {
		return err
	}

	// DB 생성 및 스키마 초기화
	database, _, err := db.OpenAuto(GetDBPath())
	if err != nil {
		return err
	}
	defer database.Close()

	fmt.Printf("✓ 초기화 완료\n")
	fmt.Printf("  설정: %s\n", config.Path(cwd))
	fmt.Printf("  DB:   %s\n", database.Path())

	return nil
}
