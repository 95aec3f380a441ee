package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nebulagames/story-relay/internal/narrative"
	"github.com/nebulagames/story-relay/internal/services"
	"github.com/nebulagames/story-relay/internal/storage"
)

// The console plays the story in-process: real content, real resolver,
// in-memory sessions, and a dispatcher that records messages instead of
// calling the provider. What you see is what a player would receive.
func main() {
	storyDir := getEnv("STORY_DIR", "./data/story")
	startScene := getEnv("START_SCENE", "intro/welcome")
	errorScene := getEnv("ERROR_SCENE", "common/error")

	// The UI owns the terminal; keep the resolver quiet.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	content := storage.NewFileContentStore(storyDir, errorScene, logger)
	if _, err := content.GetChoices(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Could not load story content from %s: %v\n", storyDir, err)
		os.Exit(1)
	}

	sessions := storage.NewMemorySessionStore()
	dispatcher := services.NewMockDispatcher()
	resolver := narrative.NewResolver(content, sessions, dispatcher, startScene, logger)

	p := tea.NewProgram(NewConsoleUI(resolver, sessions, dispatcher),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
