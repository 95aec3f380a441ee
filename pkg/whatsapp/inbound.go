package whatsapp

// Envelope is the outer structure of an inbound webhook callback from
// the WhatsApp Business Cloud API. A single delivery may carry zero or
// more messages nested under entry/changes/value.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// Message is a single inbound user event.
type Message struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *Text        `json:"text,omitempty"`
	Button      *ButtonReply `json:"button,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

// ButtonReply is the quick-reply button object on template messages.
type ButtonReply struct {
	Payload string `json:"payload"`
	Text    string `json:"text"`
}

// Interactive carries a structured reply to an interactive message.
// Type is "list_reply" or "button_reply"; exactly one of the reply
// fields is set.
type Interactive struct {
	Type        string `json:"type"`
	ListReply   *Reply `json:"list_reply,omitempty"`
	ButtonReply *Reply `json:"button_reply,omitempty"`
}

type Reply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Messages flattens the envelope's entries into a single message slice.
func (e *Envelope) Messages() []Message {
	var msgs []Message
	for _, entry := range e.Entry {
		for _, change := range entry.Changes {
			msgs = append(msgs, change.Value.Messages...)
		}
	}
	return msgs
}

// ChoiceID extracts the selection identifier from a message, checking
// an explicit button first, then interactive list/button replies.
// It returns false for plain messages with no selection.
func (m *Message) ChoiceID() (string, bool) {
	if m.Button != nil {
		if m.Button.Payload != "" {
			return m.Button.Payload, true
		}
		if m.Button.Text != "" {
			return m.Button.Text, true
		}
	}
	if m.Interactive != nil {
		if m.Interactive.ListReply != nil && m.Interactive.ListReply.ID != "" {
			return m.Interactive.ListReply.ID, true
		}
		if m.Interactive.ButtonReply != nil && m.Interactive.ButtonReply.ID != "" {
			return m.Interactive.ButtonReply.ID, true
		}
	}
	return "", false
}
