package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/n0roo/pif-kit/internal/db"
)

// Entry is one audit trail row
type Entry struct {
	ID          string    `json:"id"`
	Actor       string    `json:"actor"`
	Action      string    `json:"action"`
	Site        string    `json:"site"`
	RecordCount int       `json:"record_count"`
	CostCount   int       `json:"cost_count"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

// Action constants
const (
	ActionSnapshot = "snapshot"
	ActionFinalize = "finalize"
)

// Logger writes the append-only audit trail
type Logger struct {
	db db.Database
}

// NewLogger creates a new audit logger
func NewLogger(database db.Database) *Logger {
	return &Logger{db: database}
}

// Write appends one audit entry. 실패해도 본 작업을 되돌리지 않도록
// 호출자는 반환 에러를 보고만 하고 무시해야 한다.
func (l *Logger) Write(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	_, err := l.db.Exec(`
		INSERT INTO audit_log (id, actor, action, site, record_count, cost_count, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Actor, e.Action, e.Site, e.RecordCount, e.CostCount, e.Source)
	if err != nil {
		return fmt.Errorf("감사 로그 기록 실패: %w", err)
	}
	return nil
}

// List returns recent audit entries, newest first
func (l *Logger) List(site string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, actor, action, site, record_count, cost_count, source, created_at
		FROM audit_log
	`
	var args []interface{}
	if site != "" {
		query += ` WHERE site = ?`
		args = append(args, site)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("감사 로그 조회 실패: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Site,
			&e.RecordCount, &e.CostCount, &e.Source, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
