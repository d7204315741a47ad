package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artcatalog/backend/internal/config"
	"github.com/artcatalog/backend/pkg/validation"
)

// Audience selects the contact form and mailing list a message belongs to.
type Audience string

const (
	AudiencePersonal Audience = "personal"
	AudienceFront    Audience = "front"
)

func (a Audience) IsValid() bool {
	return a == AudiencePersonal || a == AudienceFront
}

// ContactMessage is a contact form submission.
type ContactMessage struct {
	FirstName string
	LastName  string
	Email     string
	Message   string
}

// sanitized strips markup from every field.
func (m ContactMessage) sanitized() ContactMessage {
	return ContactMessage{
		FirstName: validation.StripHTML(m.FirstName),
		LastName:  validation.StripHTML(m.LastName),
		Email:     strings.TrimSpace(validation.StripHTML(m.Email)),
		Message:   validation.StripHTML(m.Message),
	}
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// EmailService relays contact form messages through the EmailJS REST API.
type EmailService struct {
	cfg    *config.Config
	client *http.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *EmailService) templateFor(audience Audience) string {
	if audience == AudienceFront {
		return s.cfg.EmailJSFrontTemplateID
	}
	return s.cfg.EmailJSTemplateID
}

// SendContact relays msg with the template of audience and returns the
// sanitized message that was sent.
func (s *EmailService) SendContact(ctx context.Context, audience Audience, msg ContactMessage) (ContactMessage, error) {
	msg = msg.sanitized()
	if audience == AudienceFront && msg.Email == "" {
		return msg, invalid("email", "is required")
	}
	if msg.Email != "" && !validation.ValidateEmail(msg.Email) {
		return msg, invalid("email", "invalid email format")
	}

	templateID := s.templateFor(audience)
	if s.cfg.EmailJSServiceID == "" || templateID == "" || s.cfg.EmailJSPublicKey == "" {
		return msg, &UpstreamError{Service: "emailjs", Err: fmt.Errorf("email relay not configured")}
	}

	payload := emailJSRequest{
		ServiceID:   s.cfg.EmailJSServiceID,
		TemplateID:  templateID,
		UserID:      s.cfg.EmailJSPublicKey,
		AccessToken: s.cfg.EmailJSPrivateKey,
		TemplateParams: map[string]string{
			"firstname": msg.FirstName,
			"lastname":  msg.LastName,
			"email":     msg.Email,
			"message":   msg.Message,
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return msg, err
	}

	endpoint := strings.TrimRight(s.cfg.EmailJSBaseURL, "/") + "/api/v1.0/email/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return msg, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return msg, &UpstreamError{Service: "emailjs", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return msg, &UpstreamError{Service: "emailjs", Err: fmt.Errorf("send failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	return msg, nil
}
