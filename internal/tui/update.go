package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DmarshalTU/jjzettel/internal/apperr"
)

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.notes)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if n, ok := m.selected(); ok {
			m.enterView(n)
		}
	case "n":
		m.textarea.Reset()
		m.textarea.Focus()
		m.mode = modeCreate
	case "/":
		return m.enterSearch("")
	case "#":
		return m.enterSearch("#")
	case "d":
		if n, ok := m.selected(); ok {
			m.deleteTarget = n
			m.mode = modeDeleteConfirm
		}
	case "c":
		if n, ok := m.selected(); ok {
			dup, err := m.svc.Duplicate(n.ID)
			if err != nil {
				m.setStatus(userError(err), true)
				break
			}
			m.refreshList()
			m.setStatus("duplicated as "+dup.Title, false)
		}
	case "s":
		m.stats = m.svc.Statistics()
		m.mode = modeStats
	case "r":
		if err := m.svc.Reload(); err != nil {
			m.setStatus(userError(err), true)
			break
		}
		m.refreshList()
		m.setStatus("reloaded from store", false)
	case "?":
		m.mode = modeHelp
	case "q":
		return m, tea.Quit
	case "esc":
		if m.filter != "" {
			m.filter = ""
			m.cursor = 0
			m.refreshList()
			return m, nil
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) enterSearch(seed string) (tea.Model, tea.Cmd) {
	m.input.Reset()
	m.input.SetValue(seed)
	m.input.CursorEnd()
	m.input.Focus()
	m.notes = collectSeq(m.svc.Search(seed))
	m.cursor = 0
	m.mode = modeSearch
	return m, nil
}

func (m Model) updateView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	linked := len(m.backlinks) + len(m.current.Links)

	switch msg.String() {
	case "j", "down":
		if m.viewSel < linked-1 {
			m.viewSel++
		}
	case "k", "up":
		if m.viewSel > 0 {
			m.viewSel--
		}
	case "enter":
		if id, ok := m.selectedRelation(); ok {
			if n, err := m.svc.Get(id); err == nil {
				m.enterView(n)
			} else {
				m.setStatus(userError(err), true)
			}
		}
	case "e":
		m.textarea.SetValue(m.current.Title + "\n\n" + m.current.Content)
		m.textarea.Focus()
		m.editID = m.current.ID
		m.mode = modeEdit
	case "l":
		m.candidates = nil
		for _, n := range m.svc.ActiveNotes() {
			if n.ID != m.current.ID {
				m.candidates = append(m.candidates, n)
			}
		}
		if len(m.candidates) == 0 {
			m.setStatus("no other notes to link to", true)
			break
		}
		m.candCursor = 0
		m.mode = modeLinkSelect
	case "t":
		m.input.Reset()
		m.input.Focus()
		m.mode = modeTagAdd
	case "u":
		id, ok := m.selectedRelation()
		if !ok || m.viewSel < len(m.backlinks) {
			m.setStatus("select an outgoing link to remove", true)
			break
		}
		m.unlinkTarget = id
		m.mode = modeUnlinkConfirm
	case "x":
		if len(m.current.Tags) == 0 {
			m.setStatus("note has no tags", true)
			break
		}
		m.tagCursor = 0
		m.mode = modeTagRemove
	case "h":
		changes, err := m.svc.History(m.current.ID)
		if err != nil {
			m.setStatus(userError(err), true)
			break
		}
		m.history = changes
		m.mode = modeHistory
	case "E":
		path, err := m.exportNote(m.current.ID)
		if err != nil {
			m.setStatus(userError(err), true)
			break
		}
		m.setStatus("exported to "+path, false)
	case "esc":
		m.refreshList()
		m.mode = modeList
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// selectedRelation resolves viewSel to a note id: backlinks first, then
// outgoing links.
func (m *Model) selectedRelation() (string, bool) {
	if m.viewSel < len(m.backlinks) {
		return m.backlinks[m.viewSel].ID, true
	}
	i := m.viewSel - len(m.backlinks)
	if i < len(m.current.Links) {
		return m.current.Links[i], true
	}
	return "", false
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		title := draftTitle(m.textarea.Value())
		content := draftContent(m.textarea.Value())
		var err error
		if m.mode == modeCreate {
			_, err = m.svc.Create(title, content)
		} else {
			_, err = m.svc.Update(m.editID, title, content)
		}
		if err != nil {
			m.setStatus(userError(err), true)
			return m, nil
		}
		m.textarea.Blur()
		m.refreshList()
		m.mode = modeList
		m.setStatus("saved "+title, false)
		return m, nil
	case "esc":
		m.textarea.Blur()
		if m.mode == modeEdit {
			if n, err := m.svc.Get(m.editID); err == nil {
				m.enterView(n)
				return m, nil
			}
		}
		m.refreshList()
		m.mode = modeList
		return m, nil
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// draftContent strips the title line and the blank lines after it from an
// editor draft.
func draftContent(draft string) string {
	lines := strings.Split(draft, "\n")
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i < len(lines) {
		i++ // title line
	}
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return strings.Join(lines[i:], "\n")
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filter = m.input.Value()
		m.input.Blur()
		m.cursor = 0
		m.refreshList()
		m.mode = modeList
		return m, nil
	case "esc":
		m.filter = ""
		m.input.Blur()
		m.cursor = 0
		m.refreshList()
		m.mode = modeList
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.notes = collectSeq(m.svc.Search(m.input.Value()))
	m.cursor = 0
	return m, cmd
}

func (m Model) updateLinkSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.candCursor < len(m.candidates)-1 {
			m.candCursor++
		}
	case "k", "up":
		if m.candCursor > 0 {
			m.candCursor--
		}
	case "enter":
		target := m.candidates[m.candCursor]
		if err := m.svc.AddLink(m.current.ID, target.ID); err != nil {
			m.setStatus(userError(err), true)
			break
		}
		if n, err := m.svc.Get(m.current.ID); err == nil {
			m.enterView(n)
		}
		m.setStatus("linked to "+target.Title, false)
	case "esc":
		m.mode = modeView
	}
	return m, nil
}

func (m Model) updateTagAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		tag := m.input.Value()
		if err := m.svc.AddTag(m.current.ID, tag); err != nil {
			m.setStatus(userError(err), true)
			return m, nil
		}
		m.input.Blur()
		if n, err := m.svc.Get(m.current.ID); err == nil {
			m.enterView(n)
		}
		m.setStatus("tagged", false)
		return m, nil
	case "esc":
		m.input.Blur()
		m.mode = modeView
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		if err := m.svc.Archive(m.deleteTarget.ID); err != nil {
			m.setStatus(userError(err), true)
			m.mode = modeList
			break
		}
		m.refreshList()
		m.mode = modeList
		m.setStatus("archived "+m.deleteTarget.Title, false)
	case "n", "esc":
		m.mode = modeList
	}
	return m, nil
}

func (m Model) updateUnlinkConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		if err := m.svc.RemoveLink(m.current.ID, m.unlinkTarget); err != nil {
			m.setStatus(userError(err), true)
			m.mode = modeView
			break
		}
		if n, err := m.svc.Get(m.current.ID); err == nil {
			m.enterView(n)
		}
		m.setStatus("link removed", false)
	case "n", "esc":
		m.mode = modeView
	}
	return m, nil
}

func (m Model) updateTagRemove(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.tagCursor < len(m.current.Tags)-1 {
			m.tagCursor++
		}
	case "k", "up":
		if m.tagCursor > 0 {
			m.tagCursor--
		}
	case "y", "enter":
		tag := m.current.Tags[m.tagCursor]
		if err := m.svc.RemoveTag(m.current.ID, tag); err != nil {
			m.setStatus(userError(err), true)
			m.mode = modeView
			break
		}
		if n, err := m.svc.Get(m.current.ID); err == nil {
			m.enterView(n)
		}
		m.setStatus("removed tag "+tag, false)
	case "esc":
		m.mode = modeView
	}
	return m, nil
}

func (m Model) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		if m.mode == modeHistory {
			m.mode = modeView
		} else {
			m.mode = modeList
		}
	}
	return m, nil
}

// userError strips the wrapping chain down to a short message fit for the
// status bar.
func userError(err error) string {
	for _, sentinel := range []error{
		apperr.ErrNotFound, apperr.ErrSelfLink, apperr.ErrDuplicateLink,
		apperr.ErrEmptyTitle, apperr.ErrEmptyTag, apperr.ErrArchived,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
