package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/n0roo/pif-kit/internal/validate"
)

// findingsModel is the interactive validation report browser
type findingsModel struct {
	report     *validate.Report
	table      table.Model
	showDetail bool
	width      int
}

// NewFindingsBrowser builds the TUI model for a validation report
func NewFindingsBrowser(report *validate.Report) tea.Model {
	columns := []table.Column{
		{Title: "심각도", Width: 10},
		{Title: "유형", Width: 22},
		{Title: "키", Width: 24},
		{Title: "메시지", Width: 50},
	}

	rows := make([]table.Row, 0, len(report.Findings))
	for _, f := range report.Findings {
		rows = append(rows, table.Row{
			string(f.Severity),
			string(f.Type),
			f.Key.String(),
			f.Message,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(mutedColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(primaryColor).
		Bold(true)
	t.SetStyles(styles)

	return &findingsModel{report: report, table: t}
}

// Run launches the findings browser
func Run(report *validate.Report) error {
	_, err := tea.NewProgram(NewFindingsBrowser(report)).Run()
	if err != nil {
		return fmt.Errorf("TUI 실행 실패: %w", err)
	}
	return nil
}

func (m *findingsModel) Init() tea.Cmd {
	return nil
}

func (m *findingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			m.showDetail = !m.showDetail
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *findingsModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("검증 리포트 — %s", m.report.Site))
	gate := subtitleStyle.Render(fmt.Sprintf("차단 %d건 / 권고 %d건", m.report.BlockingCount, m.report.AdvisoryCount))

	view := title + "\n" + gate + "\n\n" + m.table.View()

	if m.showDetail {
		view += "\n" + m.detailView()
	}

	view += helpStyle.Render("\n↑/↓: 이동 · enter: 상세 · q: 종료")
	return view
}

// detailView renders the selected finding's detail panel
func (m *findingsModel) detailView() string {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.report.Findings) {
		return ""
	}
	f := m.report.Findings[idx]

	lines := fmt.Sprintf("%s %s\n%s %s\n%s %s\n%s %s\n%s %s",
		detailLabelStyle.Render("심각도"), SeverityBadge(string(f.Severity)),
		detailLabelStyle.Render("유형"), string(f.Type),
		detailLabelStyle.Render("키"), f.Key.String(),
		detailLabelStyle.Render("사이트"), f.Site,
		detailLabelStyle.Render("메시지"), f.Message,
	)
	return detailPanelStyle.Render(lines)
}
