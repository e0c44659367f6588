package models

// Media types returned by the Instagram Graph API
const (
	MediaTypeImage    = "IMAGE"
	MediaTypeCarousel = "CAROUSEL_ALBUM"
	MediaTypeVideo    = "VIDEO"
)

// InstagramPost represents a single media item from the Instagram Graph API.
// Posts are immutable once fetched.
type InstagramPost struct {
	ID           string `json:"id"`
	Caption      string `json:"caption,omitempty"`
	MediaType    string `json:"media_type"`
	MediaURL     string `json:"media_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Permalink    string `json:"permalink"`
	Timestamp    string `json:"timestamp"`
}

// Eligible reports whether the post should be imported. Only images and
// carousel albums are converted; videos and everything else are skipped.
func (p InstagramPost) Eligible() bool {
	return p.MediaType == MediaTypeImage || p.MediaType == MediaTypeCarousel
}

// ImageURL returns the post's primary media URL, falling back to the
// thumbnail. Empty when the post carries no usable asset.
func (p InstagramPost) ImageURL() string {
	if p.MediaURL != "" {
		return p.MediaURL
	}
	return p.ThumbnailURL
}

// EnhancedContent is the blog-ready content derived from a post's caption,
// either by the generative API or by the deterministic fallback.
type EnhancedContent struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	RichTextBody string   `json:"richTextBody"`
	Tags         []string `json:"tags"`
}

// WorkItem is the unit of queue transport: one eligible post plus the
// access token it was fetched with.
type WorkItem struct {
	Post        InstagramPost `json:"post"`
	AccessToken string        `json:"accessToken"`
}

// RecordMetadata is the content summary serialized into a ledger record.
type RecordMetadata struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	OriginalCaption string   `json:"originalCaption,omitempty"`
	AIEnhanced      bool     `json:"aiEnhanced"`
	Tags            []string `json:"tags"`
}

// Ledger record statuses
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// ProcessedPost is a dedup ledger record. At most one record exists per
// Instagram post ID; its presence is the sole idempotency signal.
type ProcessedPost struct {
	InstagramPostID string `json:"instagramPostId" dynamodbav:"instagramPostId" bson:"instagramPostId"`
	StrapiArticleID int64  `json:"strapiArticleId" dynamodbav:"strapiArticleId" bson:"strapiArticleId"`
	CreatedAt       int64  `json:"createdAt" dynamodbav:"createdAt" bson:"createdAt"`
	ProcessedAt     string `json:"processedAt" dynamodbav:"processedAt" bson:"processedAt"`
	Metadata        string `json:"metadata" dynamodbav:"metadata" bson:"metadata"`
	Status          string `json:"status" dynamodbav:"status" bson:"status"`
}
