package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const schemaVersion = 3

// 기본 테이블 (v2: line_number 복합 키 확장, v3: 비용 행 사이트 스탬프 포함)
const schemaTables = `
-- 메타데이터
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- 스테이징: 제출 1건 임시 적재 영역 (제약 없음, 중복 검출은 Validator 책임)
CREATE TABLE IF NOT EXISTS pif_staging (
    request_id TEXT NOT NULL,
    subject_id TEXT NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 1,
    status TEXT,
    change_type TEXT,
    accounting_type TEXT,
    category TEXT,
    segment INTEGER DEFAULT 0,
    opco TEXT,
    site TEXT,
    original_date TEXT,
    revised_date TEXT,
    issue_ref TEXT,
    justification TEXT,
    prior_year_spend REAL DEFAULT 0,
    retain_flag INTEGER DEFAULT 0,
    include_flag INTEGER DEFAULT 0,
    submission_id TEXT,
    loaded_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS pif_staging_costs (
    request_id TEXT NOT NULL,
    subject_id TEXT NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 1,
    scenario TEXT NOT NULL,
    fiscal_year TEXT NOT NULL,
    requested_value REAL DEFAULT 0,
    baseline_value REAL DEFAULT 0,
    variance_value REAL DEFAULT 0,
    submission_id TEXT
);

-- 인플라이트: 사이트별 현재 작업본
CREATE TABLE IF NOT EXISTS pif_inflight (
    request_id TEXT NOT NULL,
    subject_id TEXT NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 1,
    status TEXT,
    change_type TEXT,
    accounting_type TEXT,
    category TEXT,
    segment INTEGER DEFAULT 0,
    opco TEXT,
    site TEXT NOT NULL,
    original_date TEXT,
    revised_date TEXT,
    issue_ref TEXT,
    justification TEXT,
    prior_year_spend REAL DEFAULT 0,
    retain_flag INTEGER DEFAULT 0,
    include_flag INTEGER DEFAULT 0,
    submission_id TEXT,
    submitted_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- 사이트가 달라도 같은 키 삼중쌍을 가질 수 있으므로
-- 비용 행은 소유 레코드의 사이트를 함께 들고 다닌다
CREATE TABLE IF NOT EXISTS pif_inflight_costs (
    request_id TEXT NOT NULL,
    subject_id TEXT NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 1,
    site TEXT NOT NULL DEFAULT '',
    scenario TEXT NOT NULL,
    fiscal_year TEXT NOT NULL,
    requested_value REAL DEFAULT 0,
    baseline_value REAL DEFAULT 0,
    variance_value REAL DEFAULT 0,
    submitted_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- 승인 이력: 영구 보존, upsert 전용 (이 파이프라인은 삭제하지 않음)
CREATE TABLE IF NOT EXISTS pif_approved (
    request_id TEXT NOT NULL,
    subject_id TEXT NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 1,
    status TEXT,
    change_type TEXT,
    accounting_type TEXT,
    category TEXT,
    segment INTEGER DEFAULT 0,
    opco TEXT,
    site TEXT NOT NULL,
    original_date TEXT,
    revised_date TEXT,
    issue_ref TEXT,
    justification TEXT,
    prior_year_spend REAL DEFAULT 0,
    retain_flag INTEGER DEFAULT 0,
    include_flag INTEGER DEFAULT 0,
    approved_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS pif_approved_costs (
    request_id TEXT NOT NULL,
    subject_id TEXT NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 1,
    site TEXT NOT NULL DEFAULT '',
    scenario TEXT NOT NULL,
    fiscal_year TEXT NOT NULL,
    requested_value REAL DEFAULT 0,
    baseline_value REAL DEFAULT 0,
    variance_value REAL DEFAULT 0,
    approved_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- 감사 로그 (finalize 성공 시 1건)
CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    actor TEXT,
    action TEXT NOT NULL,
    site TEXT,
    record_count INTEGER DEFAULT 0,
    cost_count INTEGER DEFAULT 0,
    source TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// 인덱스는 line_number 마이그레이션 이후에 적용
const schemaIndexes = `
CREATE INDEX IF NOT EXISTS idx_staging_site ON pif_staging(site);
CREATE INDEX IF NOT EXISTS idx_staging_key ON pif_staging(request_id, subject_id, line_number);
CREATE INDEX IF NOT EXISTS idx_staging_costs_key ON pif_staging_costs(request_id, subject_id, line_number);

CREATE UNIQUE INDEX IF NOT EXISTS idx_inflight_key ON pif_inflight(site, request_id, subject_id, line_number);
CREATE INDEX IF NOT EXISTS idx_inflight_site ON pif_inflight(site);
CREATE INDEX IF NOT EXISTS idx_inflight_costs_key ON pif_inflight_costs(site, request_id, subject_id, line_number);

CREATE UNIQUE INDEX IF NOT EXISTS idx_approved_key ON pif_approved(request_id, subject_id, line_number);
CREATE INDEX IF NOT EXISTS idx_approved_site ON pif_approved(site);
CREATE INDEX IF NOT EXISTS idx_approved_costs_key ON pif_approved_costs(site, request_id, subject_id, line_number);

CREATE INDEX IF NOT EXISTS idx_audit_site ON audit_log(site, created_at);
`

// DB wraps sql.DB with helper methods
type DB struct {
	*sql.DB
	path string
}

// Open opens or creates the database
func Open(path string) (*DB, error) {
	// 디렉토리 생성
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("디렉토리 생성 실패: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("DB 열기 실패: %w", err)
	}

	// 연결 테스트
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("DB 연결 실패: %w", err)
	}

	d := &DB{DB: db, path: path}

	// 스키마 자동 초기화
	if err := d.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("스키마 초기화 실패: %w", err)
	}

	return d, nil
}

// Init initializes the database schema
func (d *DB) Init() error {
	// 1. 테이블 생성
	if _, err := d.Exec(schemaTables); err != nil {
		return fmt.Errorf("기본 스키마 적용 실패: %w", err)
	}

	// 2. 마이그레이션 실행 (구버전 DB의 키 확장)
	if err := d.migrate(); err != nil {
		return fmt.Errorf("마이그레이션 실패: %w", err)
	}

	// 3. 인덱스 적용
	if _, err := d.Exec(schemaIndexes); err != nil {
		return fmt.Errorf("인덱스 적용 실패: %w", err)
	}

	// 4. 버전 저장
	_, err := d.Exec(`INSERT OR REPLACE INTO metadata (key, value, updated_at) VALUES ('schema_version', ?, CURRENT_TIMESTAMP)`, schemaVersion)
	if err != nil {
		return fmt.Errorf("버전 저장 실패: %w", err)
	}

	return nil
}

// migrate runs database migrations
func (d *DB) migrate() error {
	currentVersion, err := d.GetVersion()
	if err != nil {
		return err
	}
	// 버전 0은 방금 생성된 DB (테이블이 이미 최신)
	if currentVersion == 0 || currentVersion >= schemaVersion {
		return nil
	}

	// v1 -> v2: 복합 키에 line_number 추가
	// v1은 (request_id, subject_id) 쌍당 한 줄만 지원했음. 기존 행은 기본값 1.
	if currentVersion < 2 {
		tables := []string{
			"pif_staging", "pif_staging_costs",
			"pif_inflight", "pif_inflight_costs",
			"pif_approved", "pif_approved_costs",
		}
		for _, table := range tables {
			if err := d.addColumn(table, `line_number INTEGER NOT NULL DEFAULT 1`); err != nil {
				return fmt.Errorf("%s line_number 추가 실패: %w", table, err)
			}
		}

		// 구 유니크 인덱스 제거 (line_number 포함 인덱스로 대체)
		for _, idx := range []string{"idx_inflight_key", "idx_approved_key"} {
			if _, err := d.Exec(`DROP INDEX IF EXISTS ` + idx); err != nil {
				return fmt.Errorf("%s 제거 실패: %w", idx, err)
			}
		}
	}

	// v2 -> v3: 비용 행에 소유 사이트 스탬프
	// 키 삼중쌍만으로는 사이트가 다른 동일 키 레코드의 비용 행을 구분할 수 없다.
	if currentVersion < 3 {
		pairs := [][2]string{
			{"pif_inflight_costs", "pif_inflight"},
			{"pif_approved_costs", "pif_approved"},
		}
		for _, pair := range pairs {
			costTable, recordTable := pair[0], pair[1]
			if err := d.addColumn(costTable, `site TEXT NOT NULL DEFAULT ''`); err != nil {
				return fmt.Errorf("%s site 추가 실패: %w", costTable, err)
			}

			// 기존 행은 소유 레코드의 사이트로 보충
			if _, err := d.Exec(fmt.Sprintf(`
				UPDATE %[1]s SET site = COALESCE((
					SELECT r.site FROM %[2]s r
					WHERE r.request_id = %[1]s.request_id
					  AND r.subject_id = %[1]s.subject_id
					  AND r.line_number = %[1]s.line_number
				), '')
				WHERE site = ''
			`, costTable, recordTable)); err != nil {
				return fmt.Errorf("%s site 보충 실패: %w", costTable, err)
			}
		}

		for _, idx := range []string{"idx_inflight_costs_key", "idx_approved_costs_key"} {
			if _, err := d.Exec(`DROP INDEX IF EXISTS ` + idx); err != nil {
				return fmt.Errorf("%s 제거 실패: %w", idx, err)
			}
		}
	}

	return nil
}

// addColumn applies an additive ALTER. 같은 스키마에 재실행해도 안전하도록
// 중복 컬럼 에러만 무시하고 나머지는 그대로 전달한다.
func (d *DB) addColumn(table, column string) error {
	_, err := d.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s`, table, column))
	if err != nil && !strings.Contains(err.Error(), "duplicate column name") {
		return err
	}
	return nil
}

// GetVersion returns current schema version
func (d *DB) GetVersion() (int, error) {
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

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}
