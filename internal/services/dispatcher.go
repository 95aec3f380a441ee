package services

import (
	"context"
	"fmt"
	"io"

	"github.com/nebulagames/story-relay/pkg/story"
)

// SendResponse is the provider's acknowledgement of an accepted
// message.
type SendResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts,omitempty"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages,omitempty"`
}

// MediaUploadResponse is the provider's acknowledgement of an uploaded
// media asset. The ID is referenced by later media messages.
type MediaUploadResponse struct {
	ID string `json:"id"`
}

// CarouselCard is one card of a carousel template message.
type CarouselCard struct {
	ImageID    string `json:"image_id"`
	ButtonText string `json:"button_text"`
}

// Dispatcher sends provider-specific messages. Implementations
// truncate fields to the provider's documented limits before sending
// and never retry; a delivery failure surfaces as *DeliveryError.
type Dispatcher interface {
	SendText(ctx context.Context, to, body string) (*SendResponse, error)
	SendButtons(ctx context.Context, to string, msg *story.ButtonMessage) (*SendResponse, error)
	SendList(ctx context.Context, to string, msg *story.ListMessage) (*SendResponse, error)
	SendMedia(ctx context.Context, to, mediaType, mediaID, caption string) (*SendResponse, error)
	SendCarousel(ctx context.Context, to, templateName string, bodyParams []string, cards []CarouselCard) (*SendResponse, error)
	UploadMedia(ctx context.Context, filename, contentType string, content io.Reader) (*MediaUploadResponse, error)
}

// DeliveryError carries the provider's error response for a failed
// outbound send.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed with status %d: %s", e.StatusCode, e.Body)
}
