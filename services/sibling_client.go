package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// NotificationPayload is the body the notification service expects on
// POST /notification/.
type NotificationPayload struct {
	NotifID   string `json:"notif_id"`
	Method    string `json:"method"`
	NotifType string `json:"notif_type"`
	ID        string `json:"id"`
	TimeSent  string `json:"time_sent"`
}

// SiblingClient talks to the account and notification services over HTTP.
type SiblingClient struct {
	accountURL      string
	notificationURL string
	httpClient      *http.Client
}

func NewSiblingClient(accountURL, notificationURL string, timeout time.Duration) *SiblingClient {
	return &SiblingClient{
		accountURL:      accountURL,
		notificationURL: notificationURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NotificationPreference reads notif_preference from GET {account}/{id}.
func (sc *SiblingClient) NotificationPreference(ctx context.Context, userID string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s", sc.accountURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("account service returned %d: %s", resp.StatusCode, string(body))
	}

	var account struct {
		NotifPreference string `json:"notif_preference"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		return "", fmt.Errorf("error unmarshaling account: %w", err)
	}
	if account.NotifPreference == "" {
		return "", fmt.Errorf("account %s has no notification preference", userID)
	}
	return account.NotifPreference, nil
}

// SendNotification records a sent notification. Only 201 counts as success.
func (sc *SiblingClient) SendNotification(ctx context.Context, payload NotificationPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sc.notificationURL+"/", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("notification service returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
