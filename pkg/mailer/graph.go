package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Graph sends mail through the Microsoft Graph sendMail endpoint. Each send
// performs a client-credentials token exchange against the tenant's identity
// provider and posts the message from the configured sender mailbox.
type Graph struct {
	Tenant       string
	ClientID     string
	ClientSecret string
	Sender       string // sender mailbox
	HTTPClient   *http.Client
}

func NewGraph(tenant, clientID, clientSecret, sender string) *Graph {
	return &Graph{
		Tenant:       tenant,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Sender:       sender,
		HTTPClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *Graph) token(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {g.ClientID},
		"client_secret": {g.ClientSecret},
		"scope":         {"https://graph.microsoft.com/.default"},
	}
	endpoint := fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", g.Tenant)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("token exchange failed: %s: %s", res.Status, body)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned empty access_token")
	}
	return out.AccessToken, nil
}

// Send posts a plain-text message via the Graph sendMail API.
func (g *Graph) Send(ctx context.Context, to, subject, text string) error {
	tok, err := g.token(ctx)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"message": map[string]any{
			"subject": subject,
			"body": map[string]any{
				"contentType": "text",
				"content":     text,
			},
			"toRecipients": []map[string]any{
				{"emailAddress": map[string]any{"address": to}},
			},
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("https://graph.microsoft.com/v1.0/users/%s/sendMail", g.Sender)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)

	res, err := g.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("sendMail failed: %s: %s", res.Status, body)
	}
	return nil
}

var _ Sender = (*Graph)(nil)
