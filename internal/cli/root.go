package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/n0roo/pif-kit/internal/config"
	"github.com/n0roo/pif-kit/internal/db"
	"github.com/spf13/cobra"
)

var (
	dbPath  string
	verbose bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "pifkit",
	Short: "PIF 변경 요청 제출 파이프라인",
	Long: `PIF Kit - Project Impact Form 제출 파이프라인

스프레드시트 추출본을 스테이징에 적재하고, 검증 후 사이트별 작업본으로
승격하며, 보존 대상은 영구 이력으로 보관합니다.

생애주기:
  staging  - 제출 1건 임시 적재 (매번 전체 교체)
  inflight - 사이트별 현재 작업본
  approved - 영구 승인 이력 (upsert 전용)

주요 명령:
  - load:     추출본(CSV)을 스테이징에 적재
  - validate: 스테이징 배치 검증 (차단/권고 구분)
  - snapshot: 검증 후 인플라이트 반영 (보관 없음)
  - finalize: 검증 → 승격 → 보관 → 감사 로그`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a nonzero process exit code out of RunE.
// RunE 안에서 os.Exit을 부르면 defer된 cleanup(DB close)이 건너뛰어진다.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("종료 코드 %d", e.code)
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}

	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "DB 경로 (기본: .pif/pifkit.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "상세 출력")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "JSON 출력")
}

// GetDBPath returns the database path
func GetDBPath() string {
	if dbPath != "" {
		return dbPath
	}

	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".pif", "pifkit.db")
	}

	cfg, err := config.Load(cwd)
	if err == nil && cfg.Database.Path != "" {
		if filepath.IsAbs(cfg.Database.Path) {
			return cfg.Database.Path
		}
		return filepath.Join(cwd, cfg.Database.Path)
	}

	return filepath.Join(cwd, ".pif", "pifkit.db")
}

// loadConfig loads project config from the working directory
func loadConfig() *config.Config {
	cwd, err := os.Getwd()
	if err != nil {
		return config.DefaultConfig()
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// openDatabase opens the configured backend
func openDatabase() (db.Database, func(), error) {
	database, _, err := db.OpenAuto(GetDBPath())
	if err != nil {
		return nil, nil, err
	}
	return database, func() { database.Close() }, nil
}

// IsVerbose returns verbose flag
func IsVerbose() bool {
	return verbose
}

// IsJSON returns json output flag
func IsJSON() bool {
	return jsonOut
}
