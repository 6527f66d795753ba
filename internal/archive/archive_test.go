package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/n0roo/pif-kit/internal/db"
	"github.com/n0roo/pif-kit/internal/model"
	"github.com/n0roo/pif-kit/internal/promote"
	"github.com/n0roo/pif-kit/internal/staging"
)

func setupTestDB(t *testing.T) (*db.DB, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "pif-test-*")
	if err != nil {
		t.Fatalf("임시 디렉토리 생성 실패: %v", err)
	}

	database, err := db.Open(filepath.Join(tmpDir, "test.db"))
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

func record(requestID string, retain, include bool) model.ProjectRecord {
	return model.ProjectRecord{
		Key:        model.Key{RequestID: requestID, SubjectID: "SUB-1", LineNumber: 1},
		Status:     "Approved",
		ChangeType: "Scope",
		Site:       "GREENFIELD",
		Retain:     retain,
		Include:    include,
	}
}

// promoteBatch loads and promotes one batch for GREENFIELD
func promoteBatch(t *testing.T, database *db.DB, records []model.ProjectRecord, costs []model.CostLine) {
	t.Helper()
	if _, err := staging.NewStore(database).Load("GREENFIELD", records, costs); err != nil {
		t.Fatalf("스테이징 적재 실패: %v", err)
	}
	if _, err := promote.NewPromoter(database).Commit("GREENFIELD"); err != nil {
		t.Fatalf("승격 실패: %v", err)
	}
}

func TestRunArchivesEligibleOnly(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	// retain+include 둘 다 있어야 보관 대상
	promoteBatch(t, database, []model.ProjectRecord{
		record("REQ-BOTH", true, true),
		record("REQ-RETAIN", true, false),
		record("REQ-INCLUDE", false, true),
		record("REQ-NONE", false, false),
	}, nil)

	result, err := NewArchiver(database).Run("GREENFIELD")
	if err != nil {
		t.Fatalf("보관 실패: %v", err)
	}
	if result.ProjectsArchived != 1 {
		t.Errorf("보관 건수 불일치: %d", result.ProjectsArchived)
	}

	var approved int
	if err := database.QueryRow(`SELECT COUNT(*) FROM pif_approved`).Scan(&approved); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if approved != 1 {
		t.Errorf("승인 이력 건수 불일치: %d", approved)
	}

	// 보관 완료된 행만 인플라이트에서 제거
	var inflight int
	if err := database.QueryRow(`SELECT COUNT(*) FROM pif_inflight`).Scan(&inflight); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if inflight != 3 {
		t.Errorf("비대상 행이 인플라이트에서 사라짐: %d건 남음", inflight)
	}
}

func TestRunUpsertsByKey(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	archiver := NewArchiver(database)

	// 첫 보관: baseline 100
	rec := record("REQ-1", true, true)
	rec.Justification = "초기 제출"
	promoteBatch(t, database, []model.ProjectRecord{rec}, []model.CostLine{
		model.NewCostLine(rec.Key, model.ScenarioPlan, "2026-12-31", 100, 0),
	})
	if _, err := archiver.Run("GREENFIELD"); err != nil {
		t.Fatalf("첫 보관 실패: %v", err)
	}

	// 같은 키 재제출: requested 150. 이력 행이 늘어나면 안 됨
	rec.Justification = "금액 수정"
	promoteBatch(t, database, []model.ProjectRecord{rec}, []model.CostLine{
		model.NewCostLine(rec.Key, model.ScenarioPlan, "2026-12-31", 150, 0),
	})
	if _, err := archiver.Run("GREENFIELD"); err != nil {
		t.Fatalf("재보관 실패: %v", err)
	}

	var rows int
	if err := database.QueryRow(`SELECT COUNT(*) FROM pif_approved WHERE request_id = 'REQ-1'`).Scan(&rows); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if rows != 1 {
		t.Errorf("upsert가 이력 행을 중복 생성함: %d건", rows)
	}

	var justification string
	var requested float64
	if err := database.QueryRow(`SELECT justification FROM pif_approved WHERE request_id = 'REQ-1'`).Scan(&justification); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if justification != "금액 수정" {
		t.Errorf("재보관이 필드를 갱신하지 않음: %s", justification)
	}

	if err := database.QueryRow(`SELECT requested_value FROM pif_approved_costs WHERE request_id = 'REQ-1'`).Scan(&requested); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if requested != 150 {
		t.Errorf("비용이 최신 값으로 교체되지 않음: %f", requested)
	}
}

func TestRunRemovesArchivedFromInflight(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	rec := record("REQ-1", true, true)
	promoteBatch(t, database, []model.ProjectRecord{rec}, []model.CostLine{
		model.NewCostLine(rec.Key, model.ScenarioPlan, "2026-12-31", 100, 0),
	})

	if _, err := NewArchiver(database).Run("GREENFIELD"); err != nil {
		t.Fatalf("보관 실패: %v", err)
	}

	var records, costs int
	if err := database.QueryRow(`SELECT COUNT(*) FROM pif_inflight`).Scan(&records); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if err := database.QueryRow(`SELECT COUNT(*) FROM pif_inflight_costs`).Scan(&costs); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if records != 0 || costs != 0 {
		t.Errorf("보관 완료 행이 인플라이트에 남음: 레코드 %d, 비용 %d", records, costs)
	}
}

func TestRunIsIdempotentOnEmptyInflight(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	// 보관 대상이 없어도 에러 없이 0건 반환
	result, err := NewArchiver(database).Run("GREENFIELD")
	if err != nil {
		t.Fatalf("빈 인플라이트 보관 실패: %v", err)
	}
	if result.ProjectsArchived != 0 || result.CostLinesArchived != 0 {
		t.Errorf("빈 보관 결과 불일치: %+v", result)
	}
}

func TestRunSharedTripleKeepsOtherSiteCosts(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	// 두 사이트가 같은 키 삼중쌍 (REQ-1, SUB-1, 1)을 보유, 둘 다 보관 대상
	insertRecord := `
		INSERT INTO pif_inflight (request_id, subject_id, line_number, site, retain_flag, include_flag)
		VALUES ('REQ-1', 'SUB-1', 1, ?, 1, 1)
	`
	insertCost := `
		INSERT INTO pif_inflight_costs (request_id, subject_id, line_number, site, scenario, fiscal_year, requested_value)
		VALUES ('REQ-1', 'SUB-1', 1, ?, 'Plan', '2026-12-31', ?)
	`
	for _, seed := range []struct {
		site  string
		value float64
	}{
		{"GREENFIELD", 1000},
		{"HARBORVIEW", 700},
	} {
		if _, err := database.Exec(insertRecord, seed.site); err != nil {
			t.Fatalf("레코드 삽입 실패: %v", err)
		}
		if _, err := database.Exec(insertCost, seed.site, seed.value); err != nil {
			t.Fatalf("비용 삽입 실패: %v", err)
		}
	}

	if _, err := NewArchiver(database).Run("GREENFIELD"); err != nil {
		t.Fatalf("보관 실패: %v", err)
	}

	// 이력에는 GREENFIELD의 비용만 복사되어야 함
	var approvedValue float64
	if err := database.QueryRow(`SELECT requested_value FROM pif_approved_costs`).Scan(&approvedValue); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if approvedValue != 1000 {
		t.Errorf("다른 사이트의 비용 값이 이력에 복사됨: %f", approvedValue)
	}

	// HARBORVIEW의 인플라이트 레코드/비용은 그대로
	var records, costs int
	if err := database.QueryRow(`SELECT COUNT(*) FROM pif_inflight WHERE site = 'HARBORVIEW'`).Scan(&records); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if err := database.QueryRow(`SELECT COUNT(*) FROM pif_inflight_costs WHERE site = 'HARBORVIEW'`).Scan(&costs); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if records != 1 || costs != 1 {
		t.Errorf("다른 사이트의 인플라이트가 정리됨: 레코드 %d, 비용 %d", records, costs)
	}

	// HARBORVIEW가 이어서 보관하면 전역 키 upsert로 소유가 넘어간다
	if _, err := NewArchiver(database).Run("HARBORVIEW"); err != nil {
		t.Fatalf("보관 실패: %v", err)
	}

	var approvedRows int
	if err := database.QueryRow(`SELECT COUNT(*) FROM pif_approved`).Scan(&approvedRows); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if approvedRows != 1 {
		t.Errorf("전역 키 upsert가 이력 행을 중복 생성함: %d건", approvedRows)
	}
	var approvedSite string
	if err := database.QueryRow(`SELECT site FROM pif_approved`).Scan(&approvedSite); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if approvedSite != "HARBORVIEW" {
		t.Errorf("upsert 후 소유 사이트 불일치: %s", approvedSite)
	}
	if err := database.QueryRow(`SELECT requested_value FROM pif_approved_costs`).Scan(&approvedValue); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if approvedValue != 700 {
		t.Errorf("upsert 후 비용이 교체되지 않음: %f", approvedValue)
	}
}

func TestRunScopedToSite(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	// 두 사이트의 보관 대상 행을 인플라이트에 직접 구성
	insert := `
		INSERT INTO pif_inflight (request_id, subject_id, line_number, site, retain_flag, include_flag)
		VALUES (?, ?, 1, ?, 1, 1)
	`
	if _, err := database.Exec(insert, "REQ-G", "SUB-1", "GREENFIELD"); err != nil {
		t.Fatalf("삽입 실패: %v", err)
	}
	if _, err := database.Exec(insert, "REQ-H", "SUB-1", "HARBORVIEW"); err != nil {
		t.Fatalf("삽입 실패: %v", err)
	}

	if _, err := NewArchiver(database).Run("GREENFIELD"); err != nil {
		t.Fatalf("보관 실패: %v", err)
	}

	// HARBORVIEW 행은 보관되지 않아야 함
	var harborview int
	if err := database.QueryRow(`SELECT COUNT(*) FROM pif_inflight WHERE site = 'HARBORVIEW'`).Scan(&harborview); err != nil {
		t.Fatalf("조회 실패: %v", err)
	}
	if harborview != 1 {
		t.Errorf("다른 사이트 행이 보관됨: %d건 남음", harborview)
	}
}
