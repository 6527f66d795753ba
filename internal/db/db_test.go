package db

import (
	"os"
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "pif-test-*")
	if err != nil {
		t.Fatalf("임시 디렉토리 생성 실패: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	database, err := Open(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("DB 열기 실패: %v", err)
	}

	cleanup := func() {
		database.Close()
		os.RemoveAll(tmpDir)
	}

	return database, cleanup
}

func TestOpenCreatesSchema(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	tables := []string{
		"metadata",
		"pif_staging", "pif_staging_costs",
		"pif_inflight", "pif_inflight_costs",
		"pif_approved", "pif_approved_costs",
		"audit_log",
	}
	for _, table := range tables {
		var name string
		err := database.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("테이블 %s이(가) 없습니다: %v", table, err)
		}
	}
}

func TestSchemaVersion(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	version, err := database.GetVersion()
	if err != nil {
		t.Fatalf("버전 조회 실패: %v", err)
	}
	if version != schemaVersion {
		t.Errorf("스키마 버전 불일치: %d (기대 %d)", version, schemaVersion)
	}
}

func TestInflightUniqueIndex(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	insert := `INSERT INTO pif_inflight (request_id, subject_id, line_number, site) VALUES (?, ?, ?, ?)`

	if _, err := database.Exec(insert, "REQ-1", "SUB-1", 1, "GREENFIELD"); err != nil {
		t.Fatalf("삽입 실패: %v", err)
	}

	// 같은 사이트 + 같은 키 = 유니크 위반
	if _, err := database.Exec(insert, "REQ-1", "SUB-1", 1, "GREENFIELD"); err == nil {
		t.Error("같은 사이트의 중복 키 삽입이 성공함")
	}

	// 다른 line_number는 허용
	if _, err := database.Exec(insert, "REQ-1", "SUB-1", 2, "GREENFIELD"); err != nil {
		t.Errorf("다른 line_number 삽입 실패: %v", err)
	}

	// 다른 사이트는 같은 키 허용 (인플라이트는 사이트별 작업본)
	if _, err := database.Exec(insert, "REQ-1", "SUB-1", 1, "HARBORVIEW"); err != nil {
		t.Errorf("다른 사이트 동일 키 삽입 실패: %v", err)
	}
}

func TestApprovedUniqueIndexIsGlobal(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	insert := `INSERT INTO pif_approved (request_id, subject_id, line_number, site) VALUES (?, ?, ?, ?)`

	if _, err := database.Exec(insert, "REQ-1", "SUB-1", 1, "GREENFIELD"); err != nil {
		t.Fatalf("삽입 실패: %v", err)
	}

	// 승인 이력은 사이트 무관 전역 키
	if _, err := database.Exec(insert, "REQ-1", "SUB-1", 1, "HARBORVIEW"); err == nil {
		t.Error("승인 이력에서 사이트만 다른 중복 키 삽입이 성공함")
	}
}

func TestMigrateV1AddsLineNumber(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pif-test-*")
	if err != nil {
		t.Fatalf("임시 디렉토리 생성 실패: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "old.db")

	// v1 스키마 흉내: line_number 없는 테이블 + 버전 1
	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("DB 열기 실패: %v", err)
	}

	if _, err := database.Exec(`DROP TABLE pif_inflight`); err != nil {
		t.Fatalf("테이블 제거 실패: %v", err)
	}
	if _, err := database.Exec(`DROP INDEX IF EXISTS idx_inflight_key`); err != nil {
		t.Fatalf("인덱스 제거 실패: %v", err)
	}
	if _, err := database.Exec(`
		CREATE TABLE pif_inflight (
			request_id TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			site TEXT NOT NULL
		)
	`); err != nil {
		t.Fatalf("v1 테이블 생성 실패: %v", err)
	}
	if _, err := database.Exec(
		`INSERT INTO pif_inflight (request_id, subject_id, site) VALUES ('REQ-1', 'SUB-1', 'GREENFIELD')`,
	); err != nil {
		t.Fatalf("v1 데이터 삽입 실패: %v", err)
	}
	if _, err := database.Exec(
		`INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', '1')`,
	); err != nil {
		t.Fatalf("버전 기록 실패: %v", err)
	}
	database.Close()

	// 다시 열면 마이그레이션이 line_number를 추가해야 함
	database, err = Open(dbPath)
	if err != nil {
		t.Fatalf("재열기 실패: %v", err)
	}
	defer database.Close()

	var lineNumber int
	err = database.QueryRow(
		`SELECT line_number FROM pif_inflight WHERE request_id = 'REQ-1'`,
	).Scan(&lineNumber)
	if err != nil {
		t.Fatalf("line_number 조회 실패: %v", err)
	}
	if lineNumber != 1 {
		t.Errorf("기존 행의 line_number 기본값이 1이 아님: %d", lineNumber)
	}

	version, err := database.GetVersion()
	if err != nil {
		t.Fatalf("버전 조회 실패: %v", err)
	}
	if version != schemaVersion {
		t.Errorf("마이그레이션 후 버전 불일치: %d", version)
	}
}

func TestMigrateV2StampsCostSite(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pif-test-*")
	if err != nil {
		t.Fatalf("임시 디렉토리 생성 실패: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "old.db")

	// v2 스키마 흉내: site 없는 비용 테이블 + 버전 2
	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("DB 열기 실패: %v", err)
	}

	if _, err := database.Exec(`DROP TABLE pif_inflight_costs`); err != nil {
		t.Fatalf("테이블 제거 실패: %v", err)
	}
	if _, err := database.Exec(`DROP INDEX IF EXISTS idx_inflight_costs_key`); err != nil {
		t.Fatalf("인덱스 제거 실패: %v", err)
	}
	if _, err := database.Exec(`
		CREATE TABLE pif_inflight_costs (
			request_id TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			line_number INTEGER NOT NULL DEFAULT 1,
			scenario TEXT NOT NULL,
			fiscal_year TEXT NOT NULL,
			requested_value REAL DEFAULT 0
		)
	`); err != nil {
		t.Fatalf("v2 테이블 생성 실패: %v", err)
	}
	if _, err := database.Exec(`
		INSERT INTO pif_inflight (request_id, subject_id, line_number, site)
		VALUES ('REQ-1', 'SUB-1', 1, 'GREENFIELD')
	`); err != nil {
		t.Fatalf("레코드 삽입 실패: %v", err)
	}
	if _, err := database.Exec(`
		INSERT INTO pif_inflight_costs (request_id, subject_id, line_number, scenario, fiscal_year)
		VALUES ('REQ-1', 'SUB-1', 1, 'Plan', '2026-12-31')
	`); err != nil {
		t.Fatalf("비용 삽입 실패: %v", err)
	}
	if _, err := database.Exec(
		`INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', '2')`,
	); err != nil {
		t.Fatalf("버전 기록 실패: %v", err)
	}
	database.Close()

	// 다시 열면 비용 행에 소유 레코드의 사이트가 보충되어야 함
	database, err = Open(dbPath)
	if err != nil {
		t.Fatalf("재열기 실패: %v", err)
	}
	defer database.Close()

	var site string
	err = database.QueryRow(`SELECT site FROM pif_inflight_costs WHERE request_id = 'REQ-1'`).Scan(&site)
	if err != nil {
		t.Fatalf("site 조회 실패: %v", err)
	}
	if site != "GREENFIELD" {
		t.Errorf("비용 행 site 보충 불일치: %q", site)
	}
}

func TestAddColumn(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	// 이미 있는 컬럼은 재실행으로 취급해 에러 없음
	if err := database.addColumn("pif_inflight", `site TEXT NOT NULL DEFAULT ''`); err != nil {
		t.Errorf("중복 컬럼 추가가 실패함: %v", err)
	}

	// 중복 컬럼 외의 실패는 전달되어야 함
	if err := database.addColumn("no_such_table", `site TEXT`); err == nil {
		t.Error("없는 테이블의 ALTER 에러가 무시됨")
	}
}
