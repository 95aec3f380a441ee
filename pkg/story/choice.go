package story

// DefaultChoiceID is the choice-table key substituted when an inbound
// selection id has no entry. The choice table must always contain it.
const DefaultChoiceID = "default"

// Effects are the state changes applied when a choice is resolved.
// AddItem is applied before NextScene.
type Effects struct {
	AddItem   string `json:"add_item,omitempty"`
	NextScene string `json:"next_scene,omitempty"`
}

// ButtonMessage is the structured content of an interactive button
// message. A choice's reaction message is static ButtonMessage content,
// not derived from the destination scene.
type ButtonMessage struct {
	Header     *Header  `json:"header,omitempty"`
	BodyText   string   `json:"body_text"`
	FooterText string   `json:"footer_text,omitempty"`
	Buttons    []Button `json:"buttons"`
}

// Header is an optional message header. Type is "text" or a media type;
// media headers reference a previously uploaded media id.
type Header struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	MediaID string `json:"media_id,omitempty"`
}

// Button is a tappable reply button. The button ID comes back in the
// webhook payload as interactive.button_reply.id.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Choice is a player-selectable option: optional effects plus the
// message sent in reaction.
type Choice struct {
	Effects *Effects       `json:"effects,omitempty"`
	Message *ButtonMessage `json:"message"`
}

// ChoiceTable maps selection ids to choices.
type ChoiceTable map[string]*Choice

// Resolve returns the choice for id, substituting the default choice
// when id is unknown. The second return reports whether the id itself
// was found.
func (t ChoiceTable) Resolve(id string) (*Choice, bool) {
	if c, ok := t[id]; ok {
		return c, true
	}
	return t[DefaultChoiceID], false
}
