package publisher

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialsync/instagram-sync-service/internal/config"
	"github.com/socialsync/instagram-sync-service/internal/errs"
	"github.com/socialsync/instagram-sync-service/internal/models"
)

// strapiFake records the requests a publish makes against Strapi.
type strapiFake struct {
	uploads        int
	articles       int
	lastUploadName string
	lastArticle    map[string]interface{}
	failUpload     bool
	failArticle    bool
}

func (f *strapiFake) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/api/upload":
			f.uploads++
			if f.failUpload {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			require.NoError(t, r.ParseMultipartForm(10<<20))
			files := r.MultipartForm.File["files"]
			require.Len(t, files, 1)
			f.lastUploadName = files[0].Filename
			json.NewEncoder(w).Encode([]map[string]interface{}{{"id": 42}})

		case "/api/articles":
			f.articles++
			if f.failArticle {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error": {"message": "slug already taken"}}`))
				return
			}
			var payload struct {
				Data map[string]interface{} `json:"data"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			f.lastArticle = payload.Data
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"id": 77},
			})

		default:
			http.NotFound(w, r)
		}
	}
}

func newImageServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("fake image bytes"))
	}))
}

func newTestPublisher(baseURL string) *Publisher {
	p := NewPublisher(config.StrapiConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return p
}

func TestPublisher_Publish(t *testing.T) {
	images := newImageServer()
	defer images.Close()

	fake := &strapiFake{}
	strapi := httptest.NewServer(fake.handler(t))
	defer strapi.Close()

	publisher := newTestPublisher(strapi.URL)

	post := models.InstagramPost{
		ID:        "p1",
		MediaType: models.MediaTypeImage,
		MediaURL:  images.URL + "/img.jpg",
	}
	content := models.EnhancedContent{
		Title:        "Sunset Over the Bay",
		Description:  "A golden evening by the water",
		RichTextBody: "## Sunset\n\nThe bay turned gold.",
		Tags:         []string{"sunset"},
	}

	articleID, err := publisher.Publish(context.Background(), post, content)

	assert.NoError(t, err)
	assert.Equal(t, int64(77), articleID)
	assert.Equal(t, 1, fake.uploads)
	assert.Equal(t, 1, fake.articles)
	assert.Equal(t, "instagram-p1.jpg", fake.lastUploadName)

	assert.Equal(t, "Sunset Over the Bay", fake.lastArticle["title"])
	assert.Equal(t, "sunset-over-the-bay", fake.lastArticle["slug"])
	assert.Equal(t, float64(42), fake.lastArticle["cover"])
	assert.Equal(t, "2024-03-01T12:00:00Z", fake.lastArticle["publishedAt"])

	blocks := fake.lastArticle["blocks"].([]interface{})
	require.Len(t, blocks, 1)
	block := blocks[0].(map[string]interface{})
	assert.Equal(t, "shared.rich-text", block["__component"])
	assert.Equal(t, "## Sunset\n\nThe bay turned gold.", block["body"])
}

func TestPublisher_Publish_TruncatesLongDescription(t *testing.T) {
	images := newImageServer()
	defer images.Close()

	fake := &strapiFake{}
	strapi := httptest.NewServer(fake.handler(t))
	defer strapi.Close()

	publisher := newTestPublisher(strapi.URL)

	post := models.InstagramPost{ID: "p1", MediaURL: images.URL + "/img.jpg"}
	content := models.EnhancedContent{
		Title:        "Title",
		Description:  strings.Repeat("d", 85),
		RichTextBody: "body",
	}

	_, err := publisher.Publish(context.Background(), post, content)

	assert.NoError(t, err)
	desc := fake.lastArticle["description"].(string)
	assert.Len(t, desc, 80)
	assert.Equal(t, strings.Repeat("d", 77)+"...", desc)
}

func TestPublisher_Publish_ShortDescriptionUntouched(t *testing.T) {
	images := newImageServer()
	defer images.Close()

	fake := &strapiFake{}
	strapi := httptest.NewServer(fake.handler(t))
	defer strapi.Close()

	publisher := newTestPublisher(strapi.URL)

	post := models.InstagramPost{ID: "p1", MediaURL: images.URL + "/img.jpg"}
	content := models.EnhancedContent{
		Title:        "Title",
		Description:  strings.Repeat("d", 80),
		RichTextBody: "body",
	}

	_, err := publisher.Publish(context.Background(), post, content)

	assert.NoError(t, err)
	assert.Equal(t, strings.Repeat("d", 80), fake.lastArticle["description"])
}

func TestPublisher_Publish_NoAsset(t *testing.T) {
	fake := &strapiFake{}
	strapi := httptest.NewServer(fake.handler(t))
	defer strapi.Close()

	publisher := newTestPublisher(strapi.URL)

	post := models.InstagramPost{ID: "p1"} // no media_url, no thumbnail_url

	_, err := publisher.Publish(context.Background(), post, models.EnhancedContent{
		Title: "Title", RichTextBody: "body",
	})

	assert.Error(t, err)
	assert.Equal(t, errs.KindNoAsset, errs.KindOf(err))
	assert.Equal(t, 0, fake.uploads)
	assert.Equal(t, 0, fake.articles)
}

func TestPublisher_Publish_ThumbnailFallback(t *testing.T) {
	images := newImageServer()
	defer images.Close()

	fake := &strapiFake{}
	strapi := httptest.NewServer(fake.handler(t))
	defer strapi.Close()

	publisher := newTestPublisher(strapi.URL)

	post := models.InstagramPost{ID: "p2", ThumbnailURL: images.URL + "/thumb.jpg"}

	_, err := publisher.Publish(context.Background(), post, models.EnhancedContent{
		Title: "Title", RichTextBody: "body",
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, fake.uploads)
	assert.Equal(t, "instagram-p2.jpg", fake.lastUploadName)
}

func TestPublisher_Publish_UploadFailureStopsPublish(t *testing.T) {
	images := newImageServer()
	defer images.Close()

	fake := &strapiFake{failUpload: true}
	strapi := httptest.NewServer(fake.handler(t))
	defer strapi.Close()

	publisher := newTestPublisher(strapi.URL)

	post := models.InstagramPost{ID: "p1", MediaURL: images.URL + "/img.jpg"}

	_, err := publisher.Publish(context.Background(), post, models.EnhancedContent{
		Title: "Title", RichTextBody: "body",
	})

	assert.Error(t, err)
	assert.Equal(t, errs.KindPublish, errs.KindOf(err))
	assert.Equal(t, 0, fake.articles)
}

func TestPublisher_Publish_ArticleCreateFailure(t *testing.T) {
	images := newImageServer()
	defer images.Close()

	fake := &strapiFake{failArticle: true}
	strapi := httptest.NewServer(fake.handler(t))
	defer strapi.Close()

	publisher := newTestPublisher(strapi.URL)

	post := models.InstagramPost{ID: "p1", MediaURL: images.URL + "/img.jpg"}

	_, err := publisher.Publish(context.Background(), post, models.EnhancedContent{
		Title: "Title", RichTextBody: "body",
	})

	assert.Error(t, err)

	var pubErr *errs.Error
	assert.ErrorAs(t, err, &pubErr)
	assert.Equal(t, http.StatusBadRequest, pubErr.Status)
	assert.Contains(t, pubErr.Body, "slug already taken")

	// The asset was uploaded before the failure: known partial-failure window
	assert.Equal(t, 1, fake.uploads)
}
