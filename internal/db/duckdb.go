package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// DuckDB 스키마 버전
const duckDBSchemaVersion = 1

// DuckDB 스키마 (SQLite 호환 + DuckDB 타입)
// 분석/리포트 용도로 동일 파이프라인을 DuckDB 위에서 돌릴 수 있다.
const duckDBSchema = `
-- 메타데이터
CREATE TABLE IF NOT EXISTS metadata (
    key VARCHAR PRIMARY KEY,
    value VARCHAR,
    updated_at TIMESTAMP DEFAULT now()
);

-- 스테이징 (제약 없음)
CREATE TABLE IF NOT EXISTS pif_staging (
    request_id VARCHAR NOT NULL,
    subject_id VARCHAR NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 1,
    status VARCHAR,
    change_type VARCHAR,
    accounting_type VARCHAR,
    category VARCHAR,
    segment INTEGER DEFAULT 0,
    opco VARCHAR,
    site VARCHAR,
    original_date VARCHAR,
    revised_date VARCHAR,
    issue_ref VARCHAR,
    justification VARCHAR,
    prior_year_spend DOUBLE DEFAULT 0,
    retain_flag INTEGER DEFAULT 0,
    include_flag INTEGER DEFAULT 0,
    submission_id VARCHAR,
    loaded_at TIMESTAMP DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pif_staging_costs (
    request_id VARCHAR NOT NULL,
    subject_id VARCHAR NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 1,
    scenario VARCHAR NOT NULL,
    fiscal_year VARCHAR NOT NULL,
    requested_value DOUBLE DEFAULT 0,
    baseline_value DOUBLE DEFAULT 0,
    variance_value DOUBLE DEFAULT 0,
    submission_id VARCHAR
);

-- 인플라이트
CREATE TABLE IF NOT EXISTS pif_inflight (
    request_id VARCHAR NOT NULL,
    subject_id VARCHAR NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 1,
    status VARCHAR,
    change_type VARCHAR,
    accounting_type VARCHAR,
    category VARCHAR,
    segment INTEGER DEFAULT 0,
    opco VARCHAR,
    site VARCHAR NOT NULL,
    original_date VARCHAR,
    revised_date VARCHAR,
    issue_ref VARCHAR,
    justification VARCHAR,
    prior_year_spend DOUBLE DEFAULT 0,
    retain_flag INTEGER DEFAULT 0,
    include_flag INTEGER DEFAULT 0,
    submission_id VARCHAR,
    submitted_at TIMESTAMP DEFAULT now(),
    UNIQUE(site, request_id, subject_id, line_number)
);

CREATE TABLE IF NOT EXISTS pif_inflight_costs (
    request_id VARCHAR NOT NULL,
    subject_id VARCHAR NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 1,
    site VARCHAR NOT NULL DEFAULT '',
    scenario VARCHAR NOT NULL,
    fiscal_year VARCHAR NOT NULL,
    requested_value DOUBLE DEFAULT 0,
    baseline_value DOUBLE DEFAULT 0,
    variance_value DOUBLE DEFAULT 0,
    submitted_at TIMESTAMP DEFAULT now()
);

-- 승인 이력
CREATE TABLE IF NOT EXISTS pif_approved (
    request_id VARCHAR NOT NULL,
    subject_id VARCHAR NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 1,
    status VARCHAR,
    change_type VARCHAR,
    accounting_type VARCHAR,
    category VARCHAR,
    segment INTEGER DEFAULT 0,
    opco VARCHAR,
    site VARCHAR NOT NULL,
    original_date VARCHAR,
    revised_date VARCHAR,
    issue_ref VARCHAR,
    justification VARCHAR,
    prior_year_spend DOUBLE DEFAULT 0,
    retain_flag INTEGER DEFAULT 0,
    include_flag INTEGER DEFAULT 0,
    approved_at TIMESTAMP DEFAULT now(),
    UNIQUE(request_id, subject_id, line_number)
);

CREATE TABLE IF NOT EXISTS pif_approved_costs (
    request_id VARCHAR NOT NULL,
    subject_id VARCHAR NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 1,
    site VARCHAR NOT NULL DEFAULT '',
    scenario VARCHAR NOT NULL,
    fiscal_year VARCHAR NOT NULL,
    requested_value DOUBLE DEFAULT 0,
    baseline_value DOUBLE DEFAULT 0,
    variance_value DOUBLE DEFAULT 0,
    approved_at TIMESTAMP DEFAULT now()
);

-- 감사 로그
CREATE TABLE IF NOT EXISTS audit_log (
    id VARCHAR PRIMARY KEY,
    actor VARCHAR,
    action VARCHAR NOT NULL,
    site VARCHAR,
    record_count INTEGER DEFAULT 0,
    cost_count INTEGER DEFAULT 0,
    source VARCHAR,
    created_at TIMESTAMP DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_staging_site ON pif_staging(site);
CREATE INDEX IF NOT EXISTS idx_inflight_site ON pif_inflight(site);
CREATE INDEX IF NOT EXISTS idx_approved_site ON pif_approved(site);
`

// DuckDB wraps sql.DB for DuckDB
type DuckDB struct {
	*sql.DB
	path string
}

// OpenDuckDB opens or creates a DuckDB database
func OpenDuckDB(path string) (*DuckDB, error) {
	// 디렉토리 생성
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("디렉토리 생성 실패: %w", err)
	}

	// DuckDB 연결
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("DuckDB 열기 실패: %w", err)
	}

	// 연결 테스트
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("DuckDB 연결 실패: %w", err)
	}

	d := &DuckDB{DB: db, path: path}

	// 스키마 초기화
	if err := d.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("스키마 초기화 실패: %w", err)
	}

	return d, nil
}

// Init initializes the DuckDB schema
func (d *DuckDB) Init() error {
	// 스키마 적용
	if _, err := d.Exec(duckDBSchema); err != nil {
		return fmt.Errorf("스키마 적용 실패: %w", err)
	}

	// 버전 저장 (DuckDB는 now() 사용)
	_, err := d.Exec(`
		INSERT INTO metadata (key, value, updated_at)
		VALUES ('schema_version', ?, now())
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = now()
	`, duckDBSchemaVersion)
	if err != nil {
		return fmt.Errorf("버전 저장 실패: %w", err)
	}

	return nil
}

// Path returns the database file path
func (d *DuckDB) Path() string {
	return d.path
}

// GetVersion returns current schema version
func (d *DuckDB) GetVersion() (int, error) {
	var version int
	err := d.QueryRow(`SELECT CAST(value AS INTEGER) FROM metadata WHERE key = 'schema_version'`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// GetDuckDBPath converts a SQLite path to the sibling DuckDB path
func GetDuckDBPath(basePath string) string {
	ext := filepath.Ext(basePath)
	if ext != "" {
		return basePath[:len(basePath)-len(ext)] + ".duckdb"
	}
	return basePath + ".duckdb"
}
