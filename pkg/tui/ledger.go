package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"chainscrape-go/pkg/models"
)

func newLedgerTable() table.Model {
	columns := []table.Column{
		{Title: "Index", Width: 6},
		{Title: "Timestamp", Width: 19},
		{Title: "Hash", Width: 18},
		{Title: "Previous Hash", Width: 18},
		{Title: "Data Type", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(12),
		table.WithFocused(true),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(colorPrimary).
		Bold(false)
	t.SetStyles(s)

	return t
}

// applyLedgerRows replaces the table rows wholesale from the controller's
// snapshot, applying the current search filter.
func (m *Model) applyLedgerRows() {
	records, ok := m.ctrl.Ledger()
	if !ok {
		m.ledgerTable.SetRows(nil)
		return
	}

	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		if !recordMatches(rec, m.searchQuery) {
			continue
		}
		rows = append(rows, table.Row{
			strconv.Itoa(rec.Index),
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			truncateHash(rec.Hash),
			truncateHash(rec.PreviousHash),
			rec.DataType,
		})
	}
	m.ledgerTable.SetRows(rows)
}

// recordMatches does a case-insensitive substring match across the fields
// the operator can see.
func recordMatches(rec models.BlockRecord, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, field := range []string{
		strconv.Itoa(rec.Index),
		rec.Hash,
		rec.PreviousHash,
		rec.DataType,
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func truncateHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:16] + "…"
}

func (m *Model) renderBlockchainTab() string {
	records, ok := m.ctrl.Ledger()

	var b strings.Builder

	switch {
	case !ok:
		b.WriteString(warningStyle.Render("Ledger unavailable. Press 'r' to refresh once the engine is up."))
		b.WriteString("\n\n")
	case len(records) == 0:
		b.WriteString(mutedStyle.Render("Ledger is empty."))
		b.WriteString("\n\n")
	default:
		info := fmt.Sprintf("%d blocks", len(records))
		if m.searchQuery != "" {
			info += fmt.Sprintf(" • filter: %q (%d shown)", m.searchQuery, len(m.ledgerTable.Rows()))
		}
		b.WriteString(infoStyle.Render(info))
		b.WriteString("\n")
		b.WriteString(m.ledgerTable.View())
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("r refresh • / search • e export"))
	return b.String()
}
