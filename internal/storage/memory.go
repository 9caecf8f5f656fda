package storage

import "errors"

// Memory is an in-memory Store used by tests. It keeps records and change
// descriptions in insertion order and can be told to fail on demand.
type Memory struct {
	records map[string][]byte
	order   []string
	changes []Change

	// FailWrite / FailRecord make the next matching call return an error,
	// simulating a storage failure from the external backend.
	FailWrite  bool
	FailRecord bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

// Init is a no-op for the in-memory store.
func (m *Memory) Init() error { return nil }

// ReadAll returns the raw records in insertion order.
func (m *Memory) ReadAll() ([][]byte, error) {
	out := make([][]byte, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id])
	}
	return out, nil
}

// Write stores a record under id, replacing any previous version.
func (m *Memory) Write(id string, data []byte) error {
	if m.FailWrite {
		return errors.New("memory store: write failed")
	}
	if _, ok := m.records[id]; !ok {
		m.order = append(m.order, id)
	}
	m.records[id] = append([]byte(nil), data...)
	return nil
}

// RecordChange appends a change description to the log.
func (m *Memory) RecordChange(description string) error {
	if m.FailRecord {
		return errors.New("memory store: record change failed")
	}
	m.changes = append(m.changes, Change{
		ID:          "mem-" + description,
		Description: description,
	})
	return nil
}

// History returns all recorded changes; the in-memory store does not track
// which record a change touched.
func (m *Memory) History(string) ([]Change, error) {
	return m.Changes(0)
}

// Changes returns recorded change descriptions, newest first.
func (m *Memory) Changes(limit int) ([]Change, error) {
	out := make([]Change, 0, len(m.changes))
	for i := len(m.changes) - 1; i >= 0; i-- {
		out = append(out, m.changes[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Descriptions returns the recorded change descriptions in order, for
// asserting the one-write-one-change mapping in tests.
func (m *Memory) Descriptions() []string {
	out := make([]string, len(m.changes))
	for i, c := range m.changes {
		out[i] = c.Description
	}
	return out
}
