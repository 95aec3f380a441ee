package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/nebulagames/story-relay/pkg/story"
	"github.com/nebulagames/story-relay/pkg/whatsapp"
)

const messagingProduct = "whatsapp"

// WhatsAppService implements Dispatcher against the WhatsApp Business
// Cloud API (Graph API). One instance serves one business phone
// number.
type WhatsAppService struct {
	baseURL     string
	accessToken string
	numberID    string
	httpClient  *http.Client
}

var _ Dispatcher = (*WhatsAppService)(nil)

func NewWhatsAppService(baseURL, accessToken, numberID string) *WhatsAppService {
	return &WhatsAppService{
		baseURL:     baseURL,
		accessToken: accessToken,
		numberID:    numberID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type bodyPayload struct {
	Body string `json:"body"`
}

type headerPayload struct {
	Type  string    `json:"type"`
	Text  string    `json:"text,omitempty"`
	Image *mediaRef `json:"image,omitempty"`
	Video *mediaRef `json:"video,omitempty"`
}

type mediaRef struct {
	ID      string `json:"id"`
	Caption string `json:"caption,omitempty"`
}

type replyPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type buttonPayload struct {
	Type  string       `json:"type"`
	Reply replyPayload `json:"reply"`
}

type sectionPayload struct {
	Title string       `json:"title"`
	Rows  []rowPayload `json:"rows"`
}

type rowPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type actionPayload struct {
	Button   string           `json:"button,omitempty"`
	Buttons  []buttonPayload  `json:"buttons,omitempty"`
	Sections []sectionPayload `json:"sections,omitempty"`
}

type interactivePayload struct {
	Type   string         `json:"type"`
	Header *headerPayload `json:"header,omitempty"`
	Body   bodyPayload    `json:"body"`
	Footer *bodyPayload   `json:"footer,omitempty"`
	Action actionPayload  `json:"action"`
}

type outboundMessage struct {
	MessagingProduct string              `json:"messaging_product"`
	RecipientType    string              `json:"recipient_type,omitempty"`
	To               string              `json:"to"`
	Type             string              `json:"type"`
	Text             *bodyPayload        `json:"text,omitempty"`
	Interactive      *interactivePayload `json:"interactive,omitempty"`
}

func (s *WhatsAppService) SendText(ctx context.Context, to, body string) (*SendResponse, error) {
	msg := outboundMessage{
		MessagingProduct: messagingProduct,
		To:               to,
		Type:             "text",
		Text: &bodyPayload{
			Body: whatsapp.Truncate(body, whatsapp.MaxTextBody),
		},
	}
	return s.postMessage(ctx, msg)
}

func (s *WhatsAppService) SendButtons(ctx context.Context, to string, msg *story.ButtonMessage) (*SendResponse, error) {
	buttons := msg.Buttons
	if len(buttons) > whatsapp.MaxButtons {
		buttons = buttons[:whatsapp.MaxButtons]
	}

	action := actionPayload{}
	for _, b := range buttons {
		action.Buttons = append(action.Buttons, buttonPayload{
			Type: "reply",
			Reply: replyPayload{
				ID:    whatsapp.Truncate(b.ID, whatsapp.MaxButtonID),
				Title: whatsapp.Truncate(b.Title, whatsapp.MaxButtonTitle),
			},
		})
	}

	interactive := &interactivePayload{
		Type: "button",
		Body: bodyPayload{
			Body: whatsapp.Truncate(msg.BodyText, whatsapp.MaxButtonBody),
		},
		Action: action,
	}
	if msg.Header != nil {
		interactive.Header = buildHeader(msg.Header)
	}
	if msg.FooterText != "" {
		interactive.Footer = &bodyPayload{
			Body: whatsapp.Truncate(msg.FooterText, whatsapp.MaxButtonFooter),
		}
	}

	out := outboundMessage{
		MessagingProduct: messagingProduct,
		RecipientType:    "individual",
		To:               to,
		Type:             "interactive",
		Interactive:      interactive,
	}
	return s.postMessage(ctx, out)
}

func (s *WhatsAppService) SendList(ctx context.Context, to string, msg *story.ListMessage) (*SendResponse, error) {
	sections := msg.Sections
	if len(sections) > whatsapp.MaxSections {
		sections = sections[:whatsapp.MaxSections]
	}

	action := actionPayload{
		Button: whatsapp.Truncate(msg.ButtonText, whatsapp.MaxListButton),
	}
	for _, sec := range sections {
		rows := sec.Rows
		if len(rows) > whatsapp.MaxRows {
			rows = rows[:whatsapp.MaxRows]
		}
		sp := sectionPayload{
			Title: whatsapp.Truncate(sec.Title, whatsapp.MaxSectionTitle),
		}
		for _, row := range rows {
			sp.Rows = append(sp.Rows, rowPayload{
				ID:          whatsapp.Truncate(row.ID, whatsapp.MaxRowID),
				Title:       whatsapp.Truncate(row.Title, whatsapp.MaxRowTitle),
				Description: whatsapp.Truncate(row.Description, whatsapp.MaxRowDesc),
			})
		}
		action.Sections = append(action.Sections, sp)
	}

	interactive := &interactivePayload{
		Type: "list",
		Body: bodyPayload{
			Body: whatsapp.Truncate(msg.BodyText, whatsapp.MaxListBody),
		},
		Action: action,
	}
	if msg.HeaderText != "" {
		interactive.Header = &headerPayload{
			Type: "text",
			Text: whatsapp.Truncate(msg.HeaderText, whatsapp.MaxListHeader),
		}
	}
	if msg.FooterText != "" {
		interactive.Footer = &bodyPayload{
			Body: whatsapp.Truncate(msg.FooterText, whatsapp.MaxListFooter),
		}
	}

	out := outboundMessage{
		MessagingProduct: messagingProduct,
		RecipientType:    "individual",
		To:               to,
		Type:             "interactive",
		Interactive:      interactive,
	}
	return s.postMessage(ctx, out)
}

func buildHeader(h *story.Header) *headerPayload {
	out := &headerPayload{Type: h.Type}
	switch h.Type {
	case "text":
		out.Text = whatsapp.Truncate(h.Text, whatsapp.MaxListHeader)
	case "image":
		out.Image = &mediaRef{ID: h.MediaID}
	case "video":
		out.Video = &mediaRef{ID: h.MediaID}
	}
	return out
}

// SendMedia references a previously uploaded media asset. The media
// type ("image", "video", "document", "audio") doubles as the payload
// key, so the message is assembled as a generic map.
func (s *WhatsAppService) SendMedia(ctx context.Context, to, mediaType, mediaID, caption string) (*SendResponse, error) {
	payload := map[string]any{
		"messaging_product": messagingProduct,
		"recipient_type":    "individual",
		"to":                to,
		"type":              mediaType,
		mediaType: mediaRef{
			ID:      mediaID,
			Caption: caption,
		},
	}
	return s.postMessage(ctx, payload)
}

// SendCarousel sends a carousel template message. Template messages
// are paid provider features; the relay only formats them.
func (s *WhatsAppService) SendCarousel(ctx context.Context, to, templateName string, bodyParams []string, cards []CarouselCard) (*SendResponse, error) {
	params := make([]map[string]any, 0, len(bodyParams))
	for _, p := range bodyParams {
		params = append(params, map[string]any{"type": "text", "text": p})
	}

	cardComponents := make([]map[string]any, 0, len(cards))
	for i, card := range cards {
		cardComponents = append(cardComponents, map[string]any{
			"card_index": i,
			"components": []map[string]any{
				{
					"type": "header",
					"parameters": []map[string]any{
						{"type": "image", "image": map[string]any{"id": card.ImageID}},
					},
				},
				{
					"type":     "button",
					"sub_type": "url",
					"index":    0,
					"parameters": []map[string]any{
						{"type": "text", "text": card.ButtonText},
					},
				},
			},
		})
	}

	payload := map[string]any{
		"messaging_product": messagingProduct,
		"recipient_type":    "individual",
		"to":                to,
		"type":              "template",
		"template": map[string]any{
			"name":     templateName,
			"language": map[string]any{"code": "en_US"},
			"components": []map[string]any{
				{"type": "body", "parameters": params},
				{"type": "carousel", "cards": cardComponents},
			},
		},
	}
	return s.postMessage(ctx, payload)
}

func (s *WhatsAppService) UploadMedia(ctx context.Context, filename, contentType string, content io.Reader) (*MediaUploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("messaging_product", messagingProduct); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to copy media content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	url := fmt.Sprintf("%s/%s/media", s.baseURL, s.numberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var resp MediaUploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}
	return &resp, nil
}

func (s *WhatsAppService) postMessage(ctx context.Context, payload any) (*SendResponse, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.numberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var resp SendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse send response: %w", err)
	}
	return &resp, nil
}

// do executes the request and maps non-2xx responses to
// *DeliveryError carrying the provider's error body.
func (s *WhatsAppService) do(req *http.Request) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach provider: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &DeliveryError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
	return body, nil
}
