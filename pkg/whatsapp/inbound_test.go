package whatsapp

import (
	"encoding/json"
	"testing"
)

const listReplyPayload = `{
	"object": "whatsapp_business_account",
	"entry": [{
		"id": "123456",
		"changes": [{
			"field": "messages",
			"value": {
				"messaging_product": "whatsapp",
				"contacts": [{"wa_id": "15551234567", "profile": {"name": "Ada"}}],
				"messages": [{
					"from": "15551234567",
					"id": "wamid.abc",
					"timestamp": "1700000000",
					"type": "interactive",
					"interactive": {
						"type": "list_reply",
						"list_reply": {"id": "choose_nebula", "title": "Drift closer"}
					}
				}]
			}
		}]
	}]
}`

func TestEnvelope_Messages(t *testing.T) {
	var envelope Envelope
	if err := json.Unmarshal([]byte(listReplyPayload), &envelope); err != nil {
		t.Fatalf("Failed to unmarshal envelope: %v", err)
	}

	msgs := envelope.Messages()
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(msgs))
	}
	if msgs[0].From != "15551234567" {
		t.Errorf("Expected sender '15551234567', got %v", msgs[0].From)
	}
}

func TestEnvelope_MessagesEmpty(t *testing.T) {
	var envelope Envelope
	payload := `{"object": "whatsapp_business_account", "entry": [{"changes": [{"field": "messages", "value": {"statuses": [{"id": "wamid.x"}]}}]}]}`
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		t.Fatalf("Failed to unmarshal envelope: %v", err)
	}

	if msgs := envelope.Messages(); len(msgs) != 0 {
		t.Errorf("Expected no messages for a status delivery, got %d", len(msgs))
	}
}

func TestMessage_ChoiceID(t *testing.T) {
	tests := []struct {
		name    string
		message Message
		wantID  string
		wantOK  bool
	}{
		{
			name: "template button payload wins",
			message: Message{
				Type:        "button",
				Button:      &ButtonReply{Payload: "enter_vortex", Text: "Enter the vortex"},
				Interactive: &Interactive{Type: "list_reply", ListReply: &Reply{ID: "choose_nebula"}},
			},
			wantID: "enter_vortex",
			wantOK: true,
		},
		{
			name: "template button falls back to text",
			message: Message{
				Type:   "button",
				Button: &ButtonReply{Text: "enter_vortex"},
			},
			wantID: "enter_vortex",
			wantOK: true,
		},
		{
			name: "interactive list reply",
			message: Message{
				Type:        "interactive",
				Interactive: &Interactive{Type: "list_reply", ListReply: &Reply{ID: "choose_nebula", Title: "Drift closer"}},
			},
			wantID: "choose_nebula",
			wantOK: true,
		},
		{
			name: "interactive button reply",
			message: Message{
				Type:        "interactive",
				Interactive: &Interactive{Type: "button_reply", ButtonReply: &Reply{ID: "hack_bot", Title: "Wake the console"}},
			},
			wantID: "hack_bot",
			wantOK: true,
		},
		{
			name: "plain text message is not a selection",
			message: Message{
				Type: "text",
				Text: &Text{Body: "hello"},
			},
			wantOK: false,
		},
		{
			name:    "empty message is not a selection",
			message: Message{Type: "text"},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := tt.message.ChoiceID()
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if id != tt.wantID {
				t.Errorf("Expected choice id %q, got %q", tt.wantID, id)
			}
		})
	}
}
