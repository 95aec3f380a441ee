package handlers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nebulagames/story-relay/internal/storage"
	"github.com/nebulagames/story-relay/pkg/story"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockAuditLog records appended payloads in memory.
type mockAuditLog struct {
	mu      sync.Mutex
	records []storage.AuditRecord
	nextID  int64

	appendErr error
	recentErr error
	pingErr   error
}

var _ storage.AuditLog = (*mockAuditLog)(nil)

func newMockAuditLog() *mockAuditLog {
	return &mockAuditLog{}
}

func (m *mockAuditLog) Append(ctx context.Context, payload []byte) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.records = append(m.records, storage.AuditRecord{
		ID:        m.nextID,
		Payload:   string(payload),
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (m *mockAuditLog) Recent(ctx context.Context, limit int) ([]storage.AuditRecord, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.AuditRecord
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *mockAuditLog) Ping(ctx context.Context) error { return m.pingErr }

func (m *mockAuditLog) Close() error { return nil }

func (m *mockAuditLog) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// mockContentStore serves fixed content for handler tests.
type mockContentStore struct {
	scenes  map[string]*story.Scene
	choices story.ChoiceTable
}

var _ storage.ContentStore = (*mockContentStore)(nil)

func newMockContentStore() *mockContentStore {
	return &mockContentStore{
		scenes: map[string]*story.Scene{
			"intro/welcome": {
				ID: "intro/welcome",
				ListMessage: story.ListMessage{
					BodyText:   "You drift into the Bubbleverse.",
					ButtonText: "Choose",
					Sections: []story.Section{
						{Title: "Paths", Rows: []story.Row{{ID: "choose_nebula", Title: "Drift closer"}}},
					},
				},
			},
		},
		choices: story.ChoiceTable{
			"choose_nebula": &story.Choice{
				Effects: &story.Effects{AddItem: "stardust_vial", NextScene: "nebula/arrival"},
				Message: &story.ButtonMessage{
					BodyText: "You lean into the current.",
					Buttons:  []story.Button{{ID: "enter_vortex", Title: "Chase the song"}},
				},
			},
			story.DefaultChoiceID: &story.Choice{
				Message: &story.ButtonMessage{
					BodyText: "Something unexpected happened...",
					Buttons:  []story.Button{{ID: "choose_nebula", Title: "Drift on"}},
				},
			},
		},
	}
}

func (m *mockContentStore) GetScene(ctx context.Context, sceneID string) (*story.Scene, error) {
	if scene, ok := m.scenes[sceneID]; ok {
		return scene, nil
	}
	// Handler tests never exercise the error-scene fallback path.
	return nil, errors.New("scene not found: " + sceneID)
}

func (m *mockContentStore) GetChoices(ctx context.Context) (story.ChoiceTable, error) {
	return m.choices, nil
}
