package blob

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"spotwise/internal/infra"
	"spotwise/internal/pkg/config"
)

// Cloudinary uploads images through Cloudinary's signed upload endpoint.
// The signature is the SHA1 of the sorted form parameters plus the API
// secret, per their upload API.
type Cloudinary struct {
	cfg    config.BlobConfig
	client *http.Client
	log    *slog.Logger
	now    func() time.Time
}

func NewCloudinary(cfg config.BlobConfig, log *slog.Logger) *Cloudinary {
	return &Cloudinary{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
		now:    time.Now,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

func (c *Cloudinary) Upload(ctx context.Context, data []byte, path string) (string, error) {
	if len(data) == 0 {
		return "", infra.WrapStoreErr(c.log, infra.KindUpstream, "refusing to upload empty payload", nil)
	}

	publicID := strings.TrimSuffix(path, ".jpg")
	if c.cfg.Folder != "" {
		publicID = c.cfg.Folder + "/" + publicID
	}
	timestamp := fmt.Sprintf("%d", c.now().Unix())

	form := url.Values{}
	form.Add("file", "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(data))
	form.Add("api_key", c.cfg.APIKey)
	form.Add("public_id", publicID)
	form.Add("timestamp", timestamp)
	signature := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, c.cfg.APISecret)
	form.Add("signature", fmt.Sprintf("%x", sha1.Sum([]byte(signature))))

	endpoint := "https://api.cloudinary.com/v1_1/" + c.cfg.CloudName + "/image/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", infra.WrapStoreErr(c.log, infra.KindUpstream, "failed to build upload request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.client.Do(req)
	if err != nil {
		return "", infra.WrapStoreErr(c.log, infra.KindUpstream, "image upload request failed", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", infra.WrapStoreErr(c.log, infra.KindUpstream, "failed to read upload response", err)
	}
	if res.StatusCode != http.StatusOK {
		return "", infra.WrapStoreErr(c.log, infra.KindUpstream,
			fmt.Sprintf("image upload rejected with status %d", res.StatusCode), nil)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", infra.WrapStoreErr(c.log, infra.KindUpstream, "malformed upload response", err)
	}
	if parsed.SecureURL != "" {
		return parsed.SecureURL, nil
	}
	if parsed.URL != "" {
		return parsed.URL, nil
	}
	return "", infra.WrapStoreErr(c.log, infra.KindUpstream, "upload response carried no URL", nil)
}
