package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"spotwise/internal/infra"
	"spotwise/internal/pkg/config"
)

// PushClient is the HTTP implementation of Registry against the indie
// push service the mobile client registers with.
type PushClient struct {
	cfg    config.PushConfig
	client *http.Client
	log    *slog.Logger
}

func NewPushClient(cfg config.PushConfig, log *slog.Logger) *PushClient {
	return &PushClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}
}

type subscriptionRequest struct {
	SubID    string `json:"subID"`
	AppID    int    `json:"appId"`
	AppToken string `json:"appToken"`
}

func (p *PushClient) Register(ctx context.Context, email string) error {
	body, err := json.Marshal(subscriptionRequest{
		SubID:    email,
		AppID:    p.cfg.AppID,
		AppToken: p.cfg.AppToken,
	})
	if err != nil {
		return infra.WrapStoreErr(p.log, infra.KindUpstream, "failed to encode subscription", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/api/indie/subscription", bytes.NewReader(body))
	if err != nil {
		return infra.WrapStoreErr(p.log, infra.KindUpstream, "failed to build subscription request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return p.do(req, "device registration")
}

func (p *PushClient) Unregister(ctx context.Context, email string) error {
	endpoint := fmt.Sprintf("%s/api/app/indie/sub/%d/%s/%s",
		p.cfg.BaseURL, p.cfg.AppID, p.cfg.AppToken, url.PathEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return infra.WrapStoreErr(p.log, infra.KindUpstream, "failed to build unsubscribe request", err)
	}
	return p.do(req, "device unregistration")
}

func (p *PushClient) UnreadCount(ctx context.Context, email string) (int, error) {
	endpoint := fmt.Sprintf("%s/api/indie/notification/inbox/count/%d/%s/%s",
		p.cfg.BaseURL, p.cfg.AppID, p.cfg.AppToken, url.PathEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, infra.WrapStoreErr(p.log, infra.KindUpstream, "failed to build unread-count request", err)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return 0, infra.WrapStoreErr(p.log, infra.KindUpstream, "unread-count request failed", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return 0, infra.WrapStoreErr(p.log, infra.KindUpstream,
			fmt.Sprintf("unread-count request rejected with status %d", res.StatusCode), nil)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, infra.WrapStoreErr(p.log, infra.KindUpstream, "failed to read unread-count response", err)
	}
	var payload struct {
		UnreadCount int `json:"unreadCount"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, infra.WrapStoreErr(p.log, infra.KindUpstream, "malformed unread-count response", err)
	}
	return payload.UnreadCount, nil
}

func (p *PushClient) do(req *http.Request, op string) error {
	res, err := p.client.Do(req)
	if err != nil {
		return infra.WrapStoreErr(p.log, infra.KindUpstream, op+" failed", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode >= 300 {
		return infra.WrapStoreErr(p.log, infra.KindUpstream,
			fmt.Sprintf("%s rejected with status %d", op, res.StatusCode), nil)
	}
	return nil
}
