// Package publisher creates Strapi articles from enhanced posts. A
// publish is two sequential calls: the image asset is uploaded first,
// then the article is created referencing it. There is no rollback: a
// failed article create leaves the uploaded asset behind.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/socialsync/instagram-sync-service/internal/config"
	"github.com/socialsync/instagram-sync-service/internal/errs"
	"github.com/socialsync/instagram-sync-service/internal/models"
	"github.com/socialsync/instagram-sync-service/internal/textutil"
)

// Publisher uploads assets and creates articles in Strapi.
type Publisher struct {
	config     config.StrapiConfig
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewPublisher creates a new Strapi publisher.
func NewPublisher(cfg config.StrapiConfig, logger *slog.Logger) *Publisher {
	return &Publisher{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
		now:    time.Now,
	}
}

type richTextBlock struct {
	Component string `json:"__component"`
	Body      string `json:"body"`
}

type articleData struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Slug        string          `json:"slug"`
	Cover       int64           `json:"cover"`
	Blocks      []richTextBlock `json:"blocks"`
	PublishedAt string          `json:"publishedAt"`
}

type articleRequest struct {
	Data articleData `json:"data"`
}

type articleResponse struct {
	Data struct {
		ID int64 `json:"id"`
	} `json:"data"`
}

type uploadedFile struct {
	ID int64 `json:"id"`
}

// Publish uploads the post's image and creates an article from the
// enhanced content. Returns the Strapi article ID.
func (p *Publisher) Publish(ctx context.Context, post models.InstagramPost, content models.EnhancedContent) (int64, error) {
	assetID, err := p.uploadImage(ctx, post)
	if err != nil {
		return 0, err
	}

	p.logger.Info("image uploaded",
		slog.String("post_id", post.ID),
		slog.Int64("asset_id", assetID))

	slug := textutil.GenerateSlug(content.Title)

	description := content.Description
	if len(description) > 80 {
		description = description[:77] + "..."
	}

	payload := articleRequest{
		Data: articleData{
			Title:       content.Title,
			Description: description,
			Slug:        slug,
			Cover:       assetID,
			Blocks: []richTextBlock{
				{Component: "shared.rich-text", Body: content.RichTextBody},
			},
			PublishedAt: p.now().UTC().Format(time.RFC3339),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, errs.Wrap(errs.KindPublish, "failed to marshal article payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.BaseURL+"/api/articles", bytes.NewReader(body))
	if err != nil {
		return 0, errs.Wrap(errs.KindPublish, "failed to create article request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, errs.Wrap(errs.KindPublish, "article create request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, errs.Wrap(errs.KindPublish, "failed to read article response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, errs.WrapStatus(errs.KindPublish, "article create returned non-2xx",
			resp.StatusCode, string(respBody), nil)
	}

	var article articleResponse
	if err := json.Unmarshal(respBody, &article); err != nil {
		return 0, errs.Wrap(errs.KindPublish, "failed to unmarshal article response", err)
	}

	p.logger.Info("article created",
		slog.String("post_id", post.ID),
		slog.Int64("article_id", article.Data.ID),
		slog.String("slug", slug))

	return article.Data.ID, nil
}

// uploadImage downloads the post's image and uploads it to Strapi's
// asset endpoint, returning the asset ID.
func (p *Publisher) uploadImage(ctx context.Context, post models.InstagramPost) (int64, error) {
	imageURL := post.ImageURL()
	if imageURL == "" {
		return 0, errs.New(errs.KindNoAsset, "no image URL found for post "+post.ID)
	}

	image, contentType, err := p.downloadImage(ctx, imageURL)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	fileName := fmt.Sprintf("instagram-%s.jpg", post.ID)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="files"; filename=%q`, fileName))
	header.Set("Content-Type", contentType)

	part, err := form.CreatePart(header)
	if err != nil {
		return 0, errs.Wrap(errs.KindPublish, "failed to create multipart field", err)
	}
	if _, err := part.Write(image); err != nil {
		return 0, errs.Wrap(errs.KindPublish, "failed to write image to form", err)
	}
	if err := form.Close(); err != nil {
		return 0, errs.Wrap(errs.KindPublish, "failed to finalize form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.BaseURL+"/api/upload", &buf)
	if err != nil {
		return 0, errs.Wrap(errs.KindPublish, "failed to create upload request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, errs.Wrap(errs.KindPublish, "upload request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, errs.Wrap(errs.KindPublish, "failed to read upload response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, errs.WrapStatus(errs.KindPublish, "upload returned non-2xx",
			resp.StatusCode, string(respBody), nil)
	}

	var files []uploadedFile
	if err := json.Unmarshal(respBody, &files); err != nil {
		return 0, errs.Wrap(errs.KindPublish, "failed to unmarshal upload response", err)
	}
	if len(files) == 0 {
		return 0, errs.New(errs.KindPublish, "upload response contained no files")
	}

	return files[0].ID, nil
}

// downloadImage fetches the image binary and its content type.
func (p *Publisher) downloadImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", errs.Wrap(errs.KindPublish, "failed to create download request", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", errs.Wrap(errs.KindPublish, "image download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errs.WrapStatus(errs.KindPublish, "image download returned non-200",
			resp.StatusCode, "", nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errs.Wrap(errs.KindPublish, "failed to read image body", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return data, contentType, nil
}
