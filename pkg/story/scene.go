package story

// ListMessage is the structured content of an interactive list message.
// Scene files on disk are ListMessage JSON; the dispatcher applies
// provider length limits at send time, not here.
type ListMessage struct {
	HeaderText string    `json:"header_text,omitempty"`
	BodyText   string    `json:"body_text"`
	FooterText string    `json:"footer_text,omitempty"`
	ButtonText string    `json:"button_text"`
	Sections   []Section `json:"sections"`
}

// Section groups selectable rows within a list message.
type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// Row is a single selectable option. The row ID comes back in the
// webhook payload as interactive.list_reply.id when the user picks it.
type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Scene is a unit of narrative content addressed by identifier.
// Scene identifiers may contain slashes ("intro/welcome") and map
// directly to content file paths.
type Scene struct {
	ID string `json:"id,omitempty"`
	ListMessage
}

// RowIDs returns every selectable row id in the scene, in order.
func (s *Scene) RowIDs() []string {
	var ids []string
	for _, sec := range s.Sections {
		for _, row := range sec.Rows {
			ids = append(ids, row.ID)
		}
	}
	return ids
}
