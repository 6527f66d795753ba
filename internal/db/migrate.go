package db

import (
	"fmt"
	"os"
	"strings"
)

// MigrationResult contains migration statistics
type MigrationResult struct {
	TablesProcessed int
	RowsMigrated    map[string]int
	Errors          []string
}

// 마이그레이션 대상 테이블 (참조 순서 유지)
var migrateTables = []string{
	"metadata",
	"pif_staging",
	"pif_staging_costs",
	"pif_inflight",
	"pif_inflight_costs",
	"pif_approved",
	"pif_approved_costs",
	"audit_log",
}

// MigrateSQLiteToDuckDB copies the pipeline stores from SQLite into DuckDB.
// 운영 DB(SQLite)를 분석용 DuckDB로 옮길 때 사용한다.
func MigrateSQLiteToDuckDB(sqlitePath, duckdbPath string) (*MigrationResult, error) {
	result := &MigrationResult{
		RowsMigrated: make(map[string]int),
	}

	// SQLite 열기
	sqliteDB, err := Open(sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("SQLite 열기 실패: %w", err)
	}
	defer sqliteDB.Close()

	// 기존 DuckDB 파일 백업
	if _, err := os.Stat(duckdbPath); err == nil {
		backupPath := duckdbPath + ".backup"
		os.Rename(duckdbPath, backupPath)
	}

	// DuckDB 열기 (새로 생성)
	duckDB, err := OpenDuckDB(duckdbPath)
	if err != nil {
		return nil, fmt.Errorf("DuckDB 열기 실패: %w", err)
	}
	defer duckDB.Close()

	for _, table := range migrateTables {
		count, err := copyTable(sqliteDB, duckDB, table)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", table, err))
			continue
		}
		result.TablesProcessed++
		result.RowsMigrated[table] = count
	}

	return result, nil
}

// copyTable copies all rows of one table between backends
func copyTable(src *DB, dst *DuckDB, table string) (int, error) {
	rows, err := src.Query(fmt.Sprintf(`SELECT * FROM %s`, table))
	if err != nil {
		return 0, fmt.Errorf("조회 실패: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}

	// metadata는 DuckDB 쪽 버전을 유지해야 하므로 건너뜀
	if table == "metadata" {
		return 0, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	insertQuery := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		table, strings.Join(cols, ", "), placeholders)

	stmt, err := dst.Prepare(insertQuery)
	if err != nil {
		return 0, fmt.Errorf("INSERT 준비 실패: %w", err)
	}
	defer stmt.Close()

	count := 0
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return count, fmt.Errorf("스캔 실패: %w", err)
		}

		if _, err := stmt.Exec(values...); err != nil {
			return count, fmt.Errorf("삽입 실패: %w", err)
		}
		count++
	}

	return count, rows.Err()
}
