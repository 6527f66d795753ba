package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/n0roo/pif-kit/internal/model"
	"github.com/n0roo/pif-kit/internal/validate"
	"gopkg.in/yaml.v3"
)

// Config represents .pif/config.yaml
type Config struct {
	Version    string           `yaml:"version"`
	Database   DatabaseConfig   `yaml:"database"`
	Sites      SitesConfig      `yaml:"sites"`
	Validation ValidationConfig `yaml:"validation"`
	Actor      string           `yaml:"actor,omitempty"`
}

// DatabaseConfig holds store settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SitesConfig holds the site registry
type SitesConfig struct {
	// 쓰기 가능한 실제 사이트 목록
	Known []string `yaml:"known"`
	// 기본 제출 사이트
	Default string `yaml:"default,omitempty"`
	// 읽기 전용 집계 가상 사이트 이름
	Fleet string `yaml:"fleet"`
}

// ValidationConfig holds validator tunables
type ValidationConfig struct {
	// 편차 권고 임계값 (달러)
	VarianceThreshold float64 `yaml:"variance_threshold"`
}

// DefaultConfig returns a default config
func DefaultConfig() *Config {
	return &Config{
		Version: "0.1.0",
		Database: DatabaseConfig{
			Path: filepath.Join(".pif", "pifkit.db"),
		},
		Sites: SitesConfig{
			Known: append([]string{}, model.DefaultSites...),
			Fleet: model.FleetSite,
		},
		Validation: ValidationConfig{
			VarianceThreshold: validate.DefaultVarianceThreshold,
		},
	}
}

// Path returns the config file path for a project root
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, ".pif", "config.yaml")
}

// Load loads config from .pif/config.yaml
func Load(projectRoot string) (*Config, error) {
	data, err := os.ReadFile(Path(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			// 설정 파일이 없으면 기본값 사용
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("설정 파일 읽기 실패: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("설정 파일 파싱 실패: %w", err)
	}

	if cfg.Sites.Fleet == "" {
		cfg.Sites.Fleet = model.FleetSite
	}
	if cfg.Validation.VarianceThreshold <= 0 {
		cfg.Validation.VarianceThreshold = validate.DefaultVarianceThreshold
	}

	return cfg, nil
}

// Save saves config to .pif/config.yaml
func Save(projectRoot string, cfg *Config) error {
	configPath := Path(projectRoot)

	// 디렉토리 생성
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("디렉토리 생성 실패: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("설정 직렬화 실패: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("설정 파일 저장 실패: %w", err)
	}

	return nil
}

// Exists checks if a project config exists
func Exists(projectRoot string) bool {
	_, err := os.Stat(Path(projectRoot))
	return err == nil
}
