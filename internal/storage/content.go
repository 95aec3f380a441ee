package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nebulagames/story-relay/pkg/story"
)

// ContentStore loads static narrative content. Content is small and
// versioned with the deployment, so implementations read through on
// every call rather than caching.
type ContentStore interface {
	// GetScene loads a scene by identifier. A missing, unreadable or
	// malformed scene file resolves to the designated error scene; an
	// error is returned only when the error scene itself cannot be
	// loaded.
	GetScene(ctx context.Context, sceneID string) (*story.Scene, error)

	// GetChoices loads the choice table.
	GetChoices(ctx context.Context) (story.ChoiceTable, error)
}

// FileContentStore reads scenes and choices from a story directory:
//
//	<dir>/scenes/<scene-id>.json
//	<dir>/choices.json
//
// Scene identifiers may contain slashes ("intro/welcome") and map to
// nested paths under scenes/.
type FileContentStore struct {
	dir        string
	errorScene string
	logger     *slog.Logger
}

var _ ContentStore = (*FileContentStore)(nil)

func NewFileContentStore(dir, errorScene string, logger *slog.Logger) *FileContentStore {
	if dir == "" {
		dir = "./data/story"
	}
	return &FileContentStore{
		dir:        dir,
		errorScene: errorScene,
		logger:     logger,
	}
}

func (f *FileContentStore) GetScene(ctx context.Context, sceneID string) (*story.Scene, error) {
	scene, err := f.readScene(sceneID)
	if err == nil {
		return scene, nil
	}

	f.logger.Warn("Failed to load scene, falling back to error scene",
		"scene_id", sceneID, "error", err)

	fallback, fbErr := f.readScene(f.errorScene)
	if fbErr != nil {
		return nil, fmt.Errorf("failed to load scene %q and error scene %q: %w", sceneID, f.errorScene, fbErr)
	}
	return fallback, nil
}

func (f *FileContentStore) readScene(sceneID string) (*story.Scene, error) {
	path, err := f.scenePath(sceneID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scene not found: %s", sceneID)
		}
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	var scene story.Scene
	if err := json.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scene %s: %w", sceneID, err)
	}
	scene.ID = sceneID

	return &scene, nil
}

// scenePath resolves a scene identifier to a file path, rejecting
// identifiers that would escape the scenes directory.
func (f *FileContentStore) scenePath(sceneID string) (string, error) {
	if sceneID == "" {
		return "", fmt.Errorf("scene identifier is empty")
	}
	cleaned := filepath.Clean(filepath.FromSlash(sceneID))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid scene identifier: %s", sceneID)
	}
	return filepath.Join(f.dir, "scenes", cleaned+".json"), nil
}

func (f *FileContentStore) GetChoices(ctx context.Context) (story.ChoiceTable, error) {
	path := filepath.Join(f.dir, "choices.json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read choices file: %w", err)
	}

	var table story.ChoiceTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal choices: %w", err)
	}

	return table, nil
}
