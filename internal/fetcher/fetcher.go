// Package fetcher lists importable posts from the Instagram Graph API.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/socialsync/instagram-sync-service/internal/config"
	"github.com/socialsync/instagram-sync-service/internal/errs"
	"github.com/socialsync/instagram-sync-service/internal/models"
)

const mediaFields = "id,caption,media_type,media_url,thumbnail_url,permalink,timestamp"

// Fetcher retrieves media items for an Instagram account.
type Fetcher struct {
	config     config.InstagramConfig
	httpClient *http.Client
}

// NewFetcher creates a new Instagram fetcher.
func NewFetcher(cfg config.InstagramConfig) *Fetcher {
	return &Fetcher{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type mediaResponse struct {
	Data []models.InstagramPost `json:"data"`
}

// FetchPosts returns the eligible posts for the account behind the access
// token. The Graph API does not filter by media type server-side, so
// videos and other ineligible items are dropped here. No retry: a failed
// fetch surfaces to the caller and the sync must be re-triggered.
func (f *Fetcher) FetchPosts(ctx context.Context, accessToken string) ([]models.InstagramPost, error) {
	endpoint := fmt.Sprintf("%s/me/media?fields=%s&access_token=%s",
		f.config.BaseURL, mediaFields, url.QueryEscape(accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindFetch, "failed to create request", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindFetch, "failed to fetch Instagram posts", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.KindFetch, "failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errs.WrapStatus(errs.KindFetch, "Instagram API returned non-200",
			resp.StatusCode, string(body), nil)
	}

	var media mediaResponse
	if err := json.Unmarshal(body, &media); err != nil {
		return nil, errs.Wrap(errs.KindFetch, "failed to unmarshal response", err)
	}

	eligible := make([]models.InstagramPost, 0, len(media.Data))
	for _, post := range media.Data {
		if post.Eligible() {
			eligible = append(eligible, post)
		}
	}

	return eligible, nil
}
