package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.lsp.dev/protocol"

	"solnav/internal/shared/util"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
	isError     bool
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	errors     int
	warnings   int
	fileCount  int
	lastUpdate time.Time
	trend      string
}

type lintMsg struct {
	summary *LintSummary
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case lintMsg:
		m.errors = msg.summary.Errors
		m.warnings = msg.summary.Warnings
		m.fileCount = msg.summary.Files
		m.lastUpdate = time.Now()

		m.trend = ""
		if prev := msg.summary.Previous; prev != nil {
			m.trend = fmt.Sprintf("errors %+d, warnings %+d", m.errors-prev.Errors, m.warnings-prev.Warnings)
		}

		items := []list.Item{}
		for _, f := range sortedFindings(msg.summary.Findings) {
			isErr := f.diag.Severity == protocol.DiagnosticSeverityError
			title := "Warning"
			if isErr {
				title = "Error"
			}
			items = append(items, item{
				title:   title,
				desc:    fmt.Sprintf("%s:%d:%d %s", f.path, f.diag.Range.Start.Line+1, f.diag.Range.Start.Character+1, f.diag.Message),
				isError: isErr,
			})
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files | heap %dMB",
		m.lastUpdate.Format("15:04:05"), m.fileCount, util.GetHeapAllocMB()))

	var summary string
	if m.errors == 0 && m.warnings == 0 {
		summary = successStyle.Render("✅ No findings")
	} else {
		summary = fmt.Sprintf("⚠️  %s | %s",
			errorStyle.Render(fmt.Sprintf("%d Errors", m.errors)),
			warningStyle.Render(fmt.Sprintf("%d Warnings", m.warnings)))
	}
	if m.trend != "" {
		summary += statusStyle.Render(" | " + m.trend)
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Solidity Lint Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Lint Findings"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}
