package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nebulagames/story-relay/internal/services"
	"github.com/nebulagames/story-relay/internal/storage"
	"github.com/nebulagames/story-relay/pkg/story"
)

// ErrPlayerStateNotFound is returned when a choice arrives for a
// player with no session. No session is fabricated; the request fails.
var ErrPlayerStateNotFound = errors.New("player state not found")

// Resolver drives the per-player narrative: session creation, choice
// resolution and outbound dispatch. Session mutation and the outbound
// send are separate steps with no rollback; if the send fails the
// mutation stands and is visible to the next interaction.
type Resolver struct {
	content    storage.ContentStore
	sessions   storage.SessionStore
	dispatcher services.Dispatcher
	startScene string
	logger     *slog.Logger
}

func NewResolver(content storage.ContentStore, sessions storage.SessionStore, dispatcher services.Dispatcher, startScene string, logger *slog.Logger) *Resolver {
	return &Resolver{
		content:    content,
		sessions:   sessions,
		dispatcher: dispatcher,
		startScene: startScene,
		logger:     logger,
	}
}

// StartSession ensures the player has a session, marks the starting
// scene visited, and sends the starting scene as an interactive list.
// An existing session keeps its current scene; the starting scene is
// only re-shown.
func (r *Resolver) StartSession(ctx context.Context, playerID string) (*story.Session, error) {
	session, created, err := r.sessions.GetOrCreate(ctx, playerID, r.startScene)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create session: %w", err)
	}

	if !created {
		session, err = r.sessions.Update(ctx, playerID, func(s *story.Session) error {
			s.Visit(r.startScene)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to mark starting scene visited: %w", err)
		}
	}

	scene, err := r.content.GetScene(ctx, r.startScene)
	if err != nil {
		return session, err
	}

	if _, err := r.dispatcher.SendList(ctx, playerID, &scene.ListMessage); err != nil {
		r.logger.Error("Failed to send scene", "player_id", playerID, "scene_id", scene.ID, "error", err)
		return session, err
	}

	r.logger.Info("Session started", "player_id", playerID, "scene_id", scene.ID, "created", created)
	return session, nil
}

// ResolveChoice looks up choiceID in the choice table (substituting
// the default choice when unknown), applies its effects to the
// player's session in a fixed order (inventory first, then scene
// transition), and sends the choice's configured reaction message.
func (r *Resolver) ResolveChoice(ctx context.Context, playerID, choiceID string) (*story.Session, error) {
	choices, err := r.content.GetChoices(ctx)
	if err != nil {
		return nil, err
	}

	choice, known := choices.Resolve(choiceID)
	if choice == nil {
		return nil, fmt.Errorf("choice table has no %q entry for unknown choice %q", story.DefaultChoiceID, choiceID)
	}
	if !known {
		r.logger.Debug("Unknown choice, using default", "player_id", playerID, "choice_id", choiceID)
	}

	session, err := r.sessions.Update(ctx, playerID, func(s *story.Session) error {
		if choice.Effects == nil {
			return nil
		}
		if choice.Effects.AddItem != "" {
			s.AddItem(choice.Effects.AddItem)
		}
		if choice.Effects.NextScene != "" {
			s.MoveTo(choice.Effects.NextScene)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPlayerStateNotFound, playerID)
		}
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if choice.Message == nil {
		return session, fmt.Errorf("choice %q has no message", choiceID)
	}

	// The reaction message is static per-choice; it is not derived
	// from the destination scene.
	if _, err := r.dispatcher.SendButtons(ctx, playerID, choice.Message); err != nil {
		r.logger.Error("Failed to send choice message", "player_id", playerID, "choice_id", choiceID, "error", err)
		return session, err
	}

	r.logger.Info("Choice resolved", "player_id", playerID, "choice_id", choiceID,
		"known", known, "current_scene", session.CurrentScene)
	return session, nil
}
