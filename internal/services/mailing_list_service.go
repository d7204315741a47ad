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

type mailchimpList struct {
	apiKey string
	server string
	listID string
}

type mailchimpMember struct {
	EmailAddress string `json:"email_address"`
	Status       string `json:"status"`
}

type mailchimpError struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// MailingListService subscribes addresses to the Mailchimp audiences.
type MailingListService struct {
	cfg    *config.Config
	client *http.Client
}

func NewMailingListService(cfg *config.Config) *MailingListService {
	return &MailingListService{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *MailingListService) list(audience Audience) mailchimpList {
	if audience == AudienceFront {
		return mailchimpList{apiKey: s.cfg.MailchimpFrontAPIKey, server: s.cfg.MailchimpFrontServer, listID: s.cfg.MailchimpFrontListID}
	}
	return mailchimpList{apiKey: s.cfg.MailchimpPersonalAPIKey, server: s.cfg.MailchimpPersonalServer, listID: s.cfg.MailchimpPersonalListID}
}

func (s *MailingListService) baseURL(l mailchimpList) string {
	if s.cfg.MailchimpBaseURL != "" {
		return strings.TrimRight(s.cfg.MailchimpBaseURL, "/")
	}
	server := l.server
	// the data center is also the suffix of the API key, e.g. "...-us21"
	if server == "" {
		if i := strings.LastIndex(l.apiKey, "-"); i >= 0 {
			server = l.apiKey[i+1:]
		}
	}
	return fmt.Sprintf("https://%s.api.mailchimp.com", server)
}

// Subscribe adds email to the audience's list. An existing member is not an error.
func (s *MailingListService) Subscribe(ctx context.Context, audience Audience, email string) error {
	email = strings.TrimSpace(email)
	if !audience.IsValid() {
		return invalid("list", "unknown list %q", audience)
	}
	if !validation.ValidateEmail(email) {
		return invalid("email", "invalid email format")
	}

	l := s.list(audience)
	if l.apiKey == "" || l.listID == "" {
		return &UpstreamError{Service: "mailchimp", Err: fmt.Errorf("%s list not configured", audience)}
	}

	b, err := json.Marshal(mailchimpMember{EmailAddress: email, Status: "subscribed"})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/3.0/lists/%s/members", s.baseURL(l), l.listID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("anystring", l.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return &UpstreamError{Service: "mailchimp", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr mailchimpError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Title == "Member Exists" {
		return nil
	}
	detail := apiErr.Detail
	if detail == "" {
		detail = strings.TrimSpace(string(body))
	}
	return &UpstreamError{Service: "mailchimp", Err: fmt.Errorf("subscribe failed with status %d: %s", resp.StatusCode, detail)}
}
