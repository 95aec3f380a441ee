package story

import (
	"time"
)

// Session is the per-player narrative state. It is owned by the session
// store; handlers and resolvers mutate it only through the store's Update.
type Session struct {
	PlayerID     string          `json:"player_id"`
	CurrentScene string          `json:"current_scene"`
	Inventory    []string        `json:"inventory,omitempty"`
	Visited      map[string]bool `json:"visited,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewSession creates a session positioned at the starting scene, with the
// starting scene already marked visited.
func NewSession(playerID, startScene string) *Session {
	now := time.Now().UTC()
	return &Session{
		PlayerID:     playerID,
		CurrentScene: startScene,
		Inventory:    make([]string, 0),
		Visited:      map[string]bool{startScene: true},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AddItem appends an item to the inventory. Duplicates are kept; the
// inventory is append-only.
func (s *Session) AddItem(item string) {
	s.Inventory = append(s.Inventory, item)
}

// MoveTo sets the current scene and marks it visited.
func (s *Session) MoveTo(sceneID string) {
	s.CurrentScene = sceneID
	s.Visit(sceneID)
}

// Visit marks a scene as visited without changing the current scene.
func (s *Session) Visit(sceneID string) {
	if s.Visited == nil {
		s.Visited = make(map[string]bool)
	}
	s.Visited[sceneID] = true
}

// Clone returns a deep copy. Stores hand out clones so callers can't
// mutate owned state outside the per-player lock.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Inventory = make([]string, len(s.Inventory))
	copy(cp.Inventory, s.Inventory)
	cp.Visited = make(map[string]bool, len(s.Visited))
	for k, v := range s.Visited {
		cp.Visited[k] = v
	}
	return &cp
}
