package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DmarshalTU/jjzettel/internal/models"
	"github.com/DmarshalTU/jjzettel/internal/noterepo"
	"github.com/DmarshalTU/jjzettel/internal/noteservice"
	"github.com/DmarshalTU/jjzettel/internal/storage"
	"github.com/DmarshalTU/jjzettel/internal/testutil"
)

func newTestModel(t *testing.T) (Model, *noteservice.Service) {
	t.Helper()
	store := storage.NewMemory()
	repo := noterepo.New(store, testutil.Logger(t))
	if err := repo.Load(); err != nil {
		t.Fatal(err)
	}
	svc := noteservice.New(repo, testutil.Logger(t))
	return New(svc, t.TempDir(), testutil.Logger(t)), svc
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// press feeds key strings through Update, discarding commands except the
// last one.
func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
	}
	return m, cmd
}

// typeText feeds each rune of s as its own key event.
func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		if r == '\n' {
			m, _ = press(t, m, "enter")
			continue
		}
		m, _ = press(t, m, string(r))
	}
	return m
}

func mustCreate(t *testing.T, svc *noteservice.Service, title, content string) models.Note {
	t.Helper()
	n, err := svc.Create(title, content)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestStartsInListMode(t *testing.T) {
	m, svc := newTestModel(t)
	if m.mode != modeList {
		t.Fatalf("expected List mode, got %d", m.mode)
	}
	mustCreate(t, svc, "Hello", "")
	m.refreshList()
	if len(m.notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(m.notes))
	}
}

func TestListNavigationIsBounded(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "One", "")
	mustCreate(t, svc, "Two", "")
	m.refreshList()

	m, _ = press(t, m, "k")
	if m.cursor != 0 {
		t.Fatal("k at top must not wrap")
	}
	m, _ = press(t, m, "j", "j", "j")
	if m.cursor != 1 {
		t.Fatalf("j at bottom must clamp, got %d", m.cursor)
	}
}

func TestEnterOpensView(t *testing.T) {
	m, svc := newTestModel(t)
	n := mustCreate(t, svc, "Open me", "body")
	m.refreshList()

	m, _ = press(t, m, "enter")
	if m.mode != modeView {
		t.Fatalf("expected View mode, got %d", m.mode)
	}
	if m.current.ID != n.ID {
		t.Fatal("wrong note opened")
	}
}

func TestCreateFlow(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, "n")
	if m.mode != modeCreate {
		t.Fatalf("expected Create mode, got %d", m.mode)
	}

	m = typeText(t, m, "My note\nsome body")
	m, _ = press(t, m, "ctrl+s")
	if m.mode != modeList {
		t.Fatalf("save must return to List, got %d", m.mode)
	}
	if len(m.notes) != 1 || m.notes[0].Title != "My note" {
		t.Fatalf("note not created: %+v", m.notes)
	}
	if m.notes[0].Content != "some body" {
		t.Fatalf("unexpected content %q", m.notes[0].Content)
	}
}

func TestCreateEmptyDraftStaysWithError(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, "n")
	m, _ = press(t, m, "ctrl+s")
	if m.mode != modeCreate {
		t.Fatal("failed save must stay in Create")
	}
	if !m.statusErr {
		t.Fatal("expected an error status")
	}
}

func TestCreateEscDiscards(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, "n")
	m = typeText(t, m, "Discarded")
	m, _ = press(t, m, "esc")
	if m.mode != modeList {
		t.Fatal("esc must return to List")
	}
	if len(m.notes) != 0 {
		t.Fatal("discarded draft must not create a note")
	}
}

func TestEditFlow(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Before", "old")
	m.refreshList()

	m, _ = press(t, m, "enter", "e")
	if m.mode != modeEdit {
		t.Fatalf("expected Edit mode, got %d", m.mode)
	}
	if !strings.HasPrefix(m.textarea.Value(), "Before") {
		t.Fatalf("draft must be seeded with the title, got %q", m.textarea.Value())
	}

	m.textarea.SetValue("After\n\nnew body")
	m, _ = press(t, m, "ctrl+s")
	if m.mode != modeList {
		t.Fatal("save must return to List")
	}
	if m.notes[0].Title != "After" || m.notes[0].Content != "new body" {
		t.Fatalf("edit not applied: %+v", m.notes[0])
	}
}

func TestSearchLiveFilterAndCommit(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Alpha", "")
	mustCreate(t, svc, "Beta", "")
	m.refreshList()

	m, _ = press(t, m, "/")
	if m.mode != modeSearch {
		t.Fatal("expected Search mode")
	}
	m = typeText(t, m, "alp")
	if len(m.notes) != 1 || m.notes[0].Title != "Alpha" {
		t.Fatalf("live filter failed: %+v", m.notes)
	}

	m, _ = press(t, m, "enter")
	if m.mode != modeList || m.filter != "alp" {
		t.Fatal("enter must commit the filter")
	}
	if len(m.notes) != 1 {
		t.Fatal("committed list must stay filtered")
	}

	// esc clears the filter before quitting.
	m, cmd := press(t, m, "esc")
	if m.filter != "" || len(m.notes) != 2 {
		t.Fatal("esc must clear the filter")
	}
	if cmd != nil {
		t.Fatal("clearing a filter must not quit")
	}
}

func TestSearchEscRestoresList(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Alpha", "")
	m.refreshList()

	m, _ = press(t, m, "/")
	m = typeText(t, m, "zzz")
	if len(m.notes) != 0 {
		t.Fatal("expected no matches")
	}
	m, _ = press(t, m, "esc")
	if m.mode != modeList || len(m.notes) != 1 {
		t.Fatal("esc must restore the unfiltered list")
	}
}

func TestTagSearchSeed(t *testing.T) {
	m, svc := newTestModel(t)
	n := mustCreate(t, svc, "Tagged", "")
	if err := svc.AddTag(n.ID, "work"); err != nil {
		t.Fatal(err)
	}
	mustCreate(t, svc, "Plain", "")
	m.refreshList()

	m, _ = press(t, m, "#")
	if m.mode != modeSearch || m.input.Value() != "#" {
		t.Fatal("# must open search seeded with #")
	}
	m = typeText(t, m, "work")
	if len(m.notes) != 1 || m.notes[0].Title != "Tagged" {
		t.Fatalf("tag filter failed: %+v", m.notes)
	}
}

func TestQuitFromList(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("q must quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.Quit")
	}
}

func TestDeleteConfirmArchives(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Doomed", "")
	m.refreshList()

	m, _ = press(t, m, "d")
	if m.mode != modeDeleteConfirm {
		t.Fatal("expected DeleteConfirm")
	}
	m, _ = press(t, m, "y")
	if m.mode != modeList {
		t.Fatal("confirm must return to List")
	}
	if len(m.notes) != 0 {
		t.Fatal("archived note still listed")
	}
}

func TestDeleteConfirmCancel(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Safe", "")
	m.refreshList()

	m, _ = press(t, m, "d", "n")
	if m.mode != modeList || len(m.notes) != 1 {
		t.Fatal("cancel must leave the note alone")
	}
}

func TestLinkSelectFlow(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Source", "")
	mustCreate(t, svc, "Target", "")
	m.refreshList()

	// Open the first note and link it to the other one.
	m, _ = press(t, m, "enter", "l")
	if m.mode != modeLinkSelect {
		t.Fatal("expected LinkSelect")
	}
	if len(m.candidates) != 1 {
		t.Fatalf("source must be excluded from candidates, got %d", len(m.candidates))
	}
	m, _ = press(t, m, "enter")
	if m.mode != modeView {
		t.Fatal("successful link must return to View")
	}
	if len(m.current.Links) != 1 {
		t.Fatalf("link not applied: %+v", m.current.Links)
	}
}

func TestLinkSelectDuplicateStaysInMode(t *testing.T) {
	m, svc := newTestModel(t)
	a := mustCreate(t, svc, "Source", "")
	b := mustCreate(t, svc, "Target", "")
	if err := svc.AddLink(a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	m.refreshList()

	// Select the source note.
	for i, n := range m.notes {
		if n.ID == a.ID {
			m.cursor = i
		}
	}
	m, _ = press(t, m, "enter", "l", "enter")
	if m.mode != modeLinkSelect {
		t.Fatal("duplicate link must stay in LinkSelect")
	}
	if !m.statusErr {
		t.Fatal("expected an error status")
	}
}

func TestTagAddFlow(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Note", "")
	m.refreshList()

	m, _ = press(t, m, "enter", "t")
	if m.mode != modeTagAdd {
		t.Fatal("expected TagAdd")
	}
	m = typeText(t, m, "Ideas")
	m, _ = press(t, m, "enter")
	if m.mode != modeView {
		t.Fatal("successful tag must return to View")
	}
	if len(m.current.Tags) != 1 || m.current.Tags[0] != "ideas" {
		t.Fatalf("tag not normalized and applied: %v", m.current.Tags)
	}
}

func TestTagAddEmptyStays(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Note", "")
	m.refreshList()

	m, _ = press(t, m, "enter", "t", "enter")
	if m.mode != modeTagAdd || !m.statusErr {
		t.Fatal("empty tag must surface an error without leaving the mode")
	}
}

func TestTagRemoveFlow(t *testing.T) {
	m, svc := newTestModel(t)
	n := mustCreate(t, svc, "Note", "")
	if err := svc.AddTag(n.ID, "drop"); err != nil {
		t.Fatal(err)
	}
	m.refreshList()

	m, _ = press(t, m, "enter", "x")
	if m.mode != modeTagRemove {
		t.Fatal("expected TagRemove")
	}
	m, _ = press(t, m, "enter")
	if m.mode != modeView || len(m.current.Tags) != 0 {
		t.Fatal("tag not removed")
	}
}

func TestUnlinkConfirmFlow(t *testing.T) {
	m, svc := newTestModel(t)
	a := mustCreate(t, svc, "Source", "")
	b := mustCreate(t, svc, "Target", "")
	if err := svc.AddLink(a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	m.refreshList()

	for i, n := range m.notes {
		if n.ID == a.ID {
			m.cursor = i
		}
	}
	m, _ = press(t, m, "enter")
	// The only relation is the outgoing link, already selected.
	m, _ = press(t, m, "u")
	if m.mode != modeUnlinkConfirm {
		t.Fatal("expected UnlinkConfirm")
	}
	m, _ = press(t, m, "y")
	if m.mode != modeView || len(m.current.Links) != 0 {
		t.Fatal("link not removed")
	}
}

func TestFollowLink(t *testing.T) {
	m, svc := newTestModel(t)
	a := mustCreate(t, svc, "Source", "")
	b := mustCreate(t, svc, "Target", "")
	if err := svc.AddLink(a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	m.refreshList()

	for i, n := range m.notes {
		if n.ID == a.ID {
			m.cursor = i
		}
	}
	m, _ = press(t, m, "enter", "enter")
	if m.mode != modeView || m.current.ID != b.ID {
		t.Fatal("enter must follow the selected link")
	}
	// The target shows its backlink; following it goes back to the source.
	m, _ = press(t, m, "enter")
	if m.current.ID != a.ID {
		t.Fatal("enter must follow the selected backlink")
	}
}

func TestDuplicateFromList(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Original", "")
	m.refreshList()

	m, _ = press(t, m, "c")
	if len(m.notes) != 2 {
		t.Fatalf("expected 2 notes after duplicate, got %d", len(m.notes))
	}
}

func TestStatsAndHelpOverlays(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "One", "")
	m.refreshList()

	m, _ = press(t, m, "s")
	if m.mode != modeStats || m.stats.Notes != 1 {
		t.Fatalf("expected Stats over 1 note, got %+v", m.stats)
	}
	m, _ = press(t, m, "esc")
	if m.mode != modeList {
		t.Fatal("esc must leave Stats")
	}

	m, _ = press(t, m, "?")
	if m.mode != modeHelp {
		t.Fatal("expected Help")
	}
	m, _ = press(t, m, "esc")
	if m.mode != modeList {
		t.Fatal("esc must leave Help")
	}
}

func TestHistoryOverlay(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "Tracked", "")
	m.refreshList()

	m, _ = press(t, m, "enter", "h")
	if m.mode != modeHistory {
		t.Fatal("expected History")
	}
	if len(m.history) == 0 {
		t.Fatal("expected at least the creation change")
	}
	m, _ = press(t, m, "esc")
	if m.mode != modeView {
		t.Fatal("esc must return to View")
	}
}

func TestReloadMsgRefreshesList(t *testing.T) {
	m, svc := newTestModel(t)
	m.refreshList()
	mustCreate(t, svc, "External", "")

	next, _ := m.Update(ReloadMsg{})
	m = next.(Model)
	if len(m.notes) != 1 {
		t.Fatal("reload must pick up the new note")
	}
}

func TestStatusClearedOnNextKey(t *testing.T) {
	m, svc := newTestModel(t)
	mustCreate(t, svc, "One", "")
	m.refreshList()

	m, _ = press(t, m, "c")
	if m.status == "" {
		t.Fatal("duplicate must set a status")
	}
	m, _ = press(t, m, "j")
	if m.status != "" {
		t.Fatal("status must clear on the next key")
	}
}
