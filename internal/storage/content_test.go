package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func setupTestContent(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	scenes := map[string]string{
		"intro/welcome": `{
			"header_text": "Welcome",
			"body_text": "You drift into the Bubbleverse.",
			"button_text": "Choose",
			"sections": [{"title": "Paths", "rows": [{"id": "choose_nebula", "title": "Drift closer"}]}]
		}`,
		"common/error": `{
			"body_text": "Something unexpected happened...",
			"button_text": "Continue",
			"sections": [{"title": "Continue", "rows": [{"id": "choose_nebula", "title": "Drift on"}]}]
		}`,
		"broken/scene": `{not valid json`,
	}
	for id, content := range scenes {
		path := filepath.Join(dir, "scenes", filepath.FromSlash(id)+".json")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create scene dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write scene file: %v", err)
		}
	}

	choices := `{
		"choose_nebula": {
			"effects": {"add_item": "stardust_vial", "next_scene": "nebula/arrival"},
			"message": {"body_text": "You lean into the current.", "buttons": [{"id": "choose_nebula", "title": "Drift on"}]}
		},
		"default": {
			"message": {"body_text": "Something unexpected happened...", "buttons": [{"id": "choose_nebula", "title": "Drift on"}]}
		}
	}`
	if err := os.WriteFile(filepath.Join(dir, "choices.json"), []byte(choices), 0o644); err != nil {
		t.Fatalf("Failed to write choices file: %v", err)
	}

	return dir
}

func testContentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFileContentStore_GetScene(t *testing.T) {
	dir := setupTestContent(t)
	store := NewFileContentStore(dir, "common/error", testContentLogger())

	scene, err := store.GetScene(context.Background(), "intro/welcome")
	if err != nil {
		t.Fatalf("Failed to get scene: %v", err)
	}
	if scene.ID != "intro/welcome" {
		t.Errorf("Expected scene id 'intro/welcome', got %v", scene.ID)
	}
	if scene.BodyText != "You drift into the Bubbleverse." {
		t.Errorf("Unexpected body text: %v", scene.BodyText)
	}
	if len(scene.Sections) != 1 || len(scene.Sections[0].Rows) != 1 {
		t.Errorf("Unexpected sections: %+v", scene.Sections)
	}
}

func TestFileContentStore_MissingSceneFallsBack(t *testing.T) {
	dir := setupTestContent(t)
	store := NewFileContentStore(dir, "common/error", testContentLogger())

	scene, err := store.GetScene(context.Background(), "no/such/scene")
	if err != nil {
		t.Fatalf("Expected fallback to error scene, got error: %v", err)
	}
	if scene.BodyText != "Something unexpected happened..." {
		t.Errorf("Expected error scene content, got %v", scene.BodyText)
	}
}

func TestFileContentStore_MalformedSceneFallsBack(t *testing.T) {
	dir := setupTestContent(t)
	store := NewFileContentStore(dir, "common/error", testContentLogger())

	scene, err := store.GetScene(context.Background(), "broken/scene")
	if err != nil {
		t.Fatalf("Expected fallback to error scene, got error: %v", err)
	}
	if scene.BodyText != "Something unexpected happened..." {
		t.Errorf("Expected error scene content, got %v", scene.BodyText)
	}
}

func TestFileContentStore_ErrorSceneItselfMissing(t *testing.T) {
	dir := setupTestContent(t)
	store := NewFileContentStore(dir, "no/such/error-scene", testContentLogger())

	if _, err := store.GetScene(context.Background(), "also/missing"); err == nil {
		t.Error("Expected error when the error scene cannot be loaded either")
	}
}

func TestFileContentStore_RejectsPathTraversal(t *testing.T) {
	dir := setupTestContent(t)
	store := NewFileContentStore(dir, "common/error", testContentLogger())

	for _, id := range []string{"../choices", "../../etc/passwd", "/etc/passwd", ""} {
		scene, err := store.GetScene(context.Background(), id)
		// Traversal identifiers resolve to the error scene like any
		// other unloadable scene.
		if err != nil {
			t.Fatalf("Expected fallback for identifier %q, got error: %v", id, err)
		}
		if scene.BodyText != "Something unexpected happened..." {
			t.Errorf("Expected error scene for identifier %q, got %v", id, scene.BodyText)
		}
	}
}

func TestFileContentStore_GetChoices(t *testing.T) {
	dir := setupTestContent(t)
	store := NewFileContentStore(dir, "common/error", testContentLogger())

	choices, err := store.GetChoices(context.Background())
	if err != nil {
		t.Fatalf("Failed to get choices: %v", err)
	}

	choice, known := choices.Resolve("choose_nebula")
	if !known || choice.Effects == nil || choice.Effects.NextScene != "nebula/arrival" {
		t.Errorf("Unexpected choice: %+v", choice)
	}

	fallback, known := choices.Resolve("unknown_id")
	if known {
		t.Error("Expected unknown id to be reported as unknown")
	}
	if fallback == nil || fallback.Message.BodyText != "Something unexpected happened..." {
		t.Errorf("Expected default choice, got %+v", fallback)
	}
}

func TestFileContentStore_GetChoicesMissingFile(t *testing.T) {
	store := NewFileContentStore(t.TempDir(), "common/error", testContentLogger())

	if _, err := store.GetChoices(context.Background()); err == nil {
		t.Error("Expected error for missing choices file")
	}
}
