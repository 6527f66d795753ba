package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/n0roo/pif-kit/internal/db"
	"github.com/n0roo/pif-kit/internal/model"
	"github.com/n0roo/pif-kit/internal/staging"
)

// setupBlockedBatch stages a batch with a blocking finding and points the
// CLI at the temp database. os.Exit 없이 종료 코드가 전달되는지 확인용.
func setupBlockedBatch(t *testing.T) func() {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "pif-test-*")
	if err != nil {
		t.Fatalf("임시 디렉토리 생성 실패: %v", err)
	}

	dbPath = filepath.Join(tmpDir, "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("DB 열기 실패: %v", err)
	}

	// change_type 누락 → 차단
	rec := model.ProjectRecord{
		Key:  model.Key{RequestID: "REQ-1", SubjectID: "SUB-1", LineNumber: 1},
		Site: "GREENFIELD",
	}
	if _, err := staging.NewStore(database).Load("GREENFIELD", []model.ProjectRecord{rec}, nil); err != nil {
		database.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("스테이징 적재 실패: %v", err)
	}
	database.Close()

	jsonOut = true

	return func() {
		dbPath = ""
		jsonOut = false
		os.RemoveAll(tmpDir)
	}
}

func TestRunValidateBlockedReturnsExitError(t *testing.T) {
	cleanup := setupBlockedBatch(t)
	defer cleanup()

	validateSite = "GREENFIELD"
	defer func() { validateSite = "" }()

	err := runValidate(validateCmd, nil)

	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("exitError가 아님: %v", err)
	}
	if ee.code != 2 {
		t.Errorf("종료 코드 불일치: %d", ee.code)
	}
}

func TestRunSnapshotBlockedReturnsExitError(t *testing.T) {
	cleanup := setupBlockedBatch(t)
	defer cleanup()

	snapshotSite = "GREENFIELD"
	defer func() { snapshotSite = "" }()

	err := runSnapshot(snapshotCmd, nil)

	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("exitError가 아님: %v", err)
	}
	if ee.code != 2 {
		t.Errorf("종료 코드 불일치: %d", ee.code)
	}

	// 차단된 스냅샷은 아무 것도 쓰지 않는다
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("DB 재열기 실패: %v", err)
	}
	defer database.Close()

	var inflight int
	if err := database.QueryRow(`SELECT COUNT(*) FROM pif_inflight`).Scan(&inflight); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if inflight != 0 {
		t.Errorf("차단된 스냅샷이 인플라이트에 기록됨: %d건", inflight)
	}
}
