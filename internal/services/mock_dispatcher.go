package services

import (
	"context"
	"io"
	"sync"

	"github.com/nebulagames/story-relay/pkg/story"
)

// SentMessage is one outbound message recorded by MockDispatcher.
type SentMessage struct {
	Kind    string // "text", "buttons", "list", "media", "carousel"
	To      string
	Body    string
	Buttons *story.ButtonMessage
	List    *story.ListMessage
}

// MockDispatcher records outbound messages for tests and the console
// playtester instead of calling the provider.
type MockDispatcher struct {
	mu   sync.Mutex
	sent []SentMessage

	// Err, when set, is returned by every send operation.
	Err error
}

var _ Dispatcher = (*MockDispatcher)(nil)

func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

func (m *MockDispatcher) record(msg SentMessage) (*SendResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return &SendResponse{MessagingProduct: messagingProduct}, nil
}

// Sent returns a copy of all recorded messages in send order.
func (m *MockDispatcher) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// Reset clears recorded messages.
func (m *MockDispatcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

func (m *MockDispatcher) SendText(ctx context.Context, to, body string) (*SendResponse, error) {
	return m.record(SentMessage{Kind: "text", To: to, Body: body})
}

func (m *MockDispatcher) SendButtons(ctx context.Context, to string, msg *story.ButtonMessage) (*SendResponse, error) {
	return m.record(SentMessage{Kind: "buttons", To: to, Body: msg.BodyText, Buttons: msg})
}

func (m *MockDispatcher) SendList(ctx context.Context, to string, msg *story.ListMessage) (*SendResponse, error) {
	return m.record(SentMessage{Kind: "list", To: to, Body: msg.BodyText, List: msg})
}

func (m *MockDispatcher) SendMedia(ctx context.Context, to, mediaType, mediaID, caption string) (*SendResponse, error) {
	return m.record(SentMessage{Kind: "media", To: to, Body: caption})
}

func (m *MockDispatcher) SendCarousel(ctx context.Context, to, templateName string, bodyParams []string, cards []CarouselCard) (*SendResponse, error) {
	return m.record(SentMessage{Kind: "carousel", To: to, Body: templateName})
}

func (m *MockDispatcher) UploadMedia(ctx context.Context, filename, contentType string, content io.Reader) (*MediaUploadResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &MediaUploadResponse{ID: "mock-media-id"}, nil
}
