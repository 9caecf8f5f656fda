// Package tui implements the interactive controller as a bubbletea state
// machine. Each mode owns its payload; transitions are pure functions of
// the current mode, the key event, and the service result.
package tui

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DmarshalTU/jjzettel/internal/models"
	"github.com/DmarshalTU/jjzettel/internal/noteservice"
	"github.com/DmarshalTU/jjzettel/internal/storage"
)

type mode int

const (
	modeList mode = iota
	modeView
	modeEdit
	modeCreate
	modeSearch
	modeLinkSelect
	modeTagAdd
	modeDeleteConfirm
	modeUnlinkConfirm
	modeTagRemove
	modeStats
	modeHelp
	modeHistory
)

// ReloadMsg asks the controller to refresh its note list after the
// repository was reloaded, e.g. when the watcher saw an external change.
type ReloadMsg struct{}

// Model is the controller state. It satisfies tea.Model.
type Model struct {
	svc    *noteservice.Service
	logger *slog.Logger

	mode   mode
	width  int
	height int

	// List mode. filter is the committed search query; empty means the
	// list is unfiltered.
	notes  []models.Note
	cursor int
	filter string

	// View mode. viewSel indexes backlinks first, then outgoing links.
	current   models.Note
	backlinks []models.Note
	viewSel   int
	viewport  viewport.Model

	// Edit / Create.
	textarea textarea.Model
	editID   string

	// Search / TagAdd.
	input textinput.Model

	// LinkSelect.
	candidates []models.Note
	candCursor int

	// DeleteConfirm / UnlinkConfirm / TagRemove payloads.
	deleteTarget models.Note
	unlinkTarget string
	tagCursor    int

	// Stats / History payloads.
	stats   noteservice.Stats
	history []storage.Change

	// exportDir receives markdown files written by the export key.
	exportDir string

	status    string
	statusErr bool
}

// New builds the controller in List mode over the service's active notes.
func New(svc *noteservice.Service, exportDir string, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	ta := textarea.New()
	ta.Placeholder = "First line becomes the title..."
	ta.CharLimit = 0

	ti := textinput.New()
	ti.CharLimit = 128

	m := Model{
		svc:       svc,
		logger:    logger,
		textarea:  ta,
		input:     ti,
		viewport:  viewport.New(0, 0),
		exportDir: exportDir,
	}
	m.refreshList()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model. All transitions happen here.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-6, 3)
		m.textarea.SetWidth(msg.Width - 4)
		m.textarea.SetHeight(max(msg.Height-6, 3))
		return m, nil

	case ReloadMsg:
		m.refreshList()
		if m.mode == modeView {
			if n, err := m.svc.Get(m.current.ID); err == nil {
				m.enterView(n)
			} else {
				m.mode = modeList
			}
		}
		m.setStatus("refreshed from store", false)
		return m, nil

	case tea.KeyMsg:
		// A transient status survives exactly until the next key.
		m.status = ""
		m.statusErr = false

		switch m.mode {
		case modeList:
			return m.updateList(msg)
		case modeView:
			return m.updateView(msg)
		case modeEdit, modeCreate:
			return m.updateEditor(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeLinkSelect:
			return m.updateLinkSelect(msg)
		case modeTagAdd:
			return m.updateTagAdd(msg)
		case modeDeleteConfirm:
			return m.updateDeleteConfirm(msg)
		case modeUnlinkConfirm:
			return m.updateUnlinkConfirm(msg)
		case modeTagRemove:
			return m.updateTagRemove(msg)
		case modeStats, modeHelp, modeHistory:
			return m.updateOverlay(msg)
		}
	}
	return m, nil
}

// refreshList reloads the list payload, re-applying the committed filter
// and clamping the cursor.
func (m *Model) refreshList() {
	if m.filter == "" {
		m.notes = m.svc.ActiveNotes()
	} else {
		m.notes = collectSeq(m.svc.Search(m.filter))
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.notes) {
		m.cursor = len(m.notes) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// selected returns the note under the list cursor.
func (m *Model) selected() (models.Note, bool) {
	if len(m.notes) == 0 || m.cursor >= len(m.notes) {
		return models.Note{}, false
	}
	return m.notes[m.cursor], true
}

// enterView switches to View mode over n, computing backlinks and
// rendering the content into the viewport.
func (m *Model) enterView(n models.Note) {
	m.current = n
	m.viewSel = 0
	back, err := m.svc.Backlinks(n.ID)
	if err != nil {
		back = nil
	}
	m.backlinks = back
	m.viewport.SetContent(m.renderNote(n))
	m.viewport.GotoTop()
	m.mode = modeView
}

// draftTitle derives a title from an editor draft: the first non-blank line.
func draftTitle(draft string) string {
	for _, line := range strings.Split(draft, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

// exportNote writes the note's markdown document next to the repository.
func (m *Model) exportNote(id string) (string, error) {
	doc, err := m.svc.ExportMarkdown(id)
	if err != nil {
		return "", err
	}
	n, err := m.svc.Get(id)
	if err != nil {
		return "", err
	}
	name := slug(n.Title) + ".md"
	path := filepath.Join(m.exportDir, name)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// slug turns a title into a safe file name.
func slug(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "note"
	}
	return b.String()
}

func collectSeq(seq func(func(models.Note) bool)) []models.Note {
	var out []models.Note
	seq(func(n models.Note) bool {
		out = append(out, n)
		return true
	})
	return out
}
