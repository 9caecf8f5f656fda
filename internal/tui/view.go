package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/DmarshalTU/jjzettel/internal/models"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tagStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	confirmStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

// View implements tea.Model.
func (m Model) View() string {
	var body string
	switch m.mode {
	case modeList:
		body = m.viewList()
	case modeView:
		body = m.viewNote()
	case modeEdit, modeCreate:
		body = m.viewEditor()
	case modeSearch:
		body = m.viewSearch()
	case modeLinkSelect:
		body = m.viewLinkSelect()
	case modeTagAdd:
		body = m.viewTagAdd()
	case modeDeleteConfirm:
		body = m.viewDeleteConfirm()
	case modeUnlinkConfirm:
		body = m.viewUnlinkConfirm()
	case modeTagRemove:
		body = m.viewTagRemove()
	case modeStats:
		body = m.viewStats()
	case modeHelp:
		body = m.viewHelp()
	case modeHistory:
		body = m.viewHistory()
	}
	return body + "\n" + m.statusLine()
}

func (m Model) statusLine() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return errStyle.Render(m.status)
	}
	return okStyle.Render(m.status)
}

func (m Model) viewList() string {
	var b strings.Builder
	header := "jjzettel"
	if m.filter != "" {
		header += dimStyle.Render(fmt.Sprintf("  filter: %s", m.filter))
	}
	b.WriteString(titleStyle.Render(header) + "\n\n")

	if len(m.notes) == 0 {
		b.WriteString(dimStyle.Render("no notes. press n to create one.") + "\n")
	}
	for i, n := range m.notes {
		line := n.Title
		if len(n.Tags) > 0 {
			line += "  " + tagStyle.Render("#"+strings.Join(n.Tags, " #"))
		}
		line += "  " + dimStyle.Render(n.UpdatedAt.Format("2006-01-02 15:04"))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n" + helpStyle.Render(
		"j/k move  enter view  n new  / search  # tags  d archive  c duplicate  s stats  r reload  ? help  q quit"))
	return b.String()
}

func (m Model) viewNote() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.current.Title) + "\n")
	meta := m.current.UpdatedAt.Format("2006-01-02 15:04")
	if len(m.current.Tags) > 0 {
		meta += "  " + tagStyle.Render("#"+strings.Join(m.current.Tags, " #"))
	}
	if m.current.Archived {
		meta += "  " + errStyle.Render("[archived]")
	}
	b.WriteString(dimStyle.Render(meta) + "\n\n")
	b.WriteString(m.viewport.View() + "\n")

	idx := 0
	if len(m.backlinks) > 0 {
		b.WriteString(headerStyle.Render("Backlinks") + "\n")
		for _, n := range m.backlinks {
			b.WriteString(relationLine(n.Title, idx == m.viewSel))
			idx++
		}
	}
	if len(m.current.Links) > 0 {
		b.WriteString(headerStyle.Render("Links") + "\n")
		for _, id := range m.current.Links {
			title := id
			if n, err := m.svc.Get(id); err == nil {
				title = n.Title
				if n.Archived {
					title += dimStyle.Render(" (archived)")
				}
			}
			b.WriteString(relationLine(title, idx == m.viewSel))
			idx++
		}
	}

	b.WriteString("\n" + helpStyle.Render(
		"e edit  l link  u unlink  t tag  x untag  h history  E export  j/k select  enter follow  esc back"))
	return b.String()
}

func relationLine(title string, selected bool) string {
	if selected {
		return selectedStyle.Render("> "+title) + "\n"
	}
	return "  " + title + "\n"
}

func (m Model) viewEditor() string {
	header := "edit note"
	if m.mode == modeCreate {
		header = "new note"
	}
	return titleStyle.Render(header) + "\n\n" +
		m.textarea.View() + "\n\n" +
		helpStyle.Render("first line is the title  ctrl+s save  esc discard")
}

func (m Model) viewSearch() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("search") + "  " + m.input.View() + "\n\n")
	for i, n := range m.notes {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+n.Title) + "\n")
		} else {
			b.WriteString("  " + n.Title + "\n")
		}
	}
	if len(m.notes) == 0 {
		b.WriteString(dimStyle.Render("no matches") + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("enter keep results  esc clear"))
	return b.String()
}

func (m Model) viewLinkSelect() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("link \""+m.current.Title+"\" to:") + "\n\n")
	for i, n := range m.candidates {
		if i == m.candCursor {
			b.WriteString(selectedStyle.Render("> "+n.Title) + "\n")
		} else {
			b.WriteString("  " + n.Title + "\n")
		}
	}
	b.WriteString("\n" + helpStyle.Render("j/k move  enter link  esc cancel"))
	return b.String()
}

func (m Model) viewTagAdd() string {
	return titleStyle.Render("add tag to \""+m.current.Title+"\"") + "\n\n" +
		m.input.View() + "\n\n" +
		helpStyle.Render("enter add  esc cancel")
}

func (m Model) viewDeleteConfirm() string {
	return confirmStyle.Render(fmt.Sprintf("archive %q? (y/n)", m.deleteTarget.Title))
}

func (m Model) viewUnlinkConfirm() string {
	title := m.unlinkTarget
	if n, err := m.svc.Get(m.unlinkTarget); err == nil {
		title = n.Title
	}
	return confirmStyle.Render(fmt.Sprintf("remove link to %q? (y/n)", title))
}

func (m Model) viewTagRemove() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("remove tag from \""+m.current.Title+"\"") + "\n\n")
	for i, t := range m.current.Tags {
		if i == m.tagCursor {
			b.WriteString(selectedStyle.Render("> #"+t) + "\n")
		} else {
			b.WriteString("  #" + t + "\n")
		}
	}
	b.WriteString("\n" + helpStyle.Render("j/k move  enter remove  esc cancel"))
	return b.String()
}

func (m Model) viewStats() string {
	st := m.stats
	var b strings.Builder
	b.WriteString(titleStyle.Render("statistics") + "\n\n")
	fmt.Fprintf(&b, "notes       %d\n", st.Notes)
	fmt.Fprintf(&b, "active      %d\n", st.Active)
	fmt.Fprintf(&b, "archived    %d\n", st.Archived)
	fmt.Fprintf(&b, "links       %d\n", st.Links)
	fmt.Fprintf(&b, "tags        %d\n", st.Tags)
	fmt.Fprintf(&b, "unique tags %d\n", st.UniqueTags)
	b.WriteString("\n" + helpStyle.Render("esc back"))
	return b.String()
}

func (m Model) viewHelp() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("keys") + "\n\n")
	rows := [][2]string{
		{"j/k", "move selection"},
		{"enter", "open note / follow link"},
		{"n", "new note"},
		{"e", "edit note"},
		{"/", "search (live)"},
		{"#", "search by tag"},
		{"l", "add link"},
		{"u", "remove link"},
		{"t", "add tag"},
		{"x", "remove tag"},
		{"d", "archive note"},
		{"c", "duplicate note"},
		{"h", "note history"},
		{"E", "export markdown"},
		{"s", "statistics"},
		{"r", "reload from store"},
		{"esc", "back / clear filter"},
		{"q", "quit"},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%s  %s\n", headerStyle.Render(fmt.Sprintf("%-6s", r[0])), r[1])
	}
	b.WriteString("\n" + helpStyle.Render("esc back"))
	return b.String()
}

func (m Model) viewHistory() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("history: "+m.current.Title) + "\n\n")
	if len(m.history) == 0 {
		b.WriteString(dimStyle.Render("no recorded changes") + "\n")
	}
	for _, c := range m.history {
		short := c.ID
		if len(short) > 8 {
			short = short[:8]
		}
		fmt.Fprintf(&b, "%s  %s\n", dimStyle.Render(short), c.Description)
	}
	b.WriteString("\n" + helpStyle.Render("esc back"))
	return b.String()
}

// renderNote renders markdown content for the viewport, falling back to the
// raw text when the renderer cannot run (e.g. in tests without a terminal).
func (m *Model) renderNote(n models.Note) string {
	width := m.width - 4
	if width < 20 {
		width = 78
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return n.Content
	}
	out, err := r.Render(n.Content)
	if err != nil {
		return n.Content
	}
	return out
}
