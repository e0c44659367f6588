// Package enhancer turns raw Instagram captions into blog-ready content.
// The primary path is a single OpenAI chat completion; any failure falls
// back to deterministic extraction from the caption, so enhancement never
// fails outward.
package enhancer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/socialsync/instagram-sync-service/internal/config"
	"github.com/socialsync/instagram-sync-service/internal/models"
	"github.com/socialsync/instagram-sync-service/internal/textutil"
)

const systemPrompt = "You are a professional content creator who specializes in " +
	"transforming social media content into engaging blog posts. Always respond with valid JSON."

const promptTemplate = `Transform this Instagram caption into professional blog content:

Original Caption: %q

Provide a JSON response with the following structure:
{
  "title": "A compelling, SEO-friendly title (max 60 characters)",
  "description": "A meta description for SEO (max 160 characters)",
  "richTextBody": "Enhanced blog content in markdown format. Expand the caption into a full blog post with proper structure, headings, and engaging content. Remove excessive hashtags and emojis, but keep the authentic voice.",
  "tags": ["relevant", "tags", "from", "content"]
}

Guidelines:
- Keep the original tone and voice
- Expand abbreviated content into full sentences
- Add structure with headings if appropriate
- Clean up hashtags (max 5 relevant ones)
- Make it blog-ready while maintaining authenticity`

// ChatCompleter is the slice of the OpenAI client the enhancer needs.
// Satisfied by *openai.Client.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Enhancer derives EnhancedContent from posts.
type Enhancer struct {
	client ChatCompleter
	config config.EnhancerConfig
	logger *slog.Logger
}

// NewEnhancer creates a new enhancer with the given chat client.
func NewEnhancer(cfg config.EnhancerConfig, client ChatCompleter, logger *slog.Logger) *Enhancer {
	return &Enhancer{
		client: client,
		config: cfg,
		logger: logger,
	}
}

// Enhance produces blog content for a post. For an empty caption a canned
// placeholder is returned without calling the API. On any API failure or
// invalid response the deterministic fallback is used instead.
func (e *Enhancer) Enhance(ctx context.Context, post models.InstagramPost) models.EnhancedContent {
	caption := post.Caption

	if strings.TrimSpace(caption) == "" {
		return models.EnhancedContent{
			Title:        "Post " + post.ID,
			Description:  "Instagram post imported automatically",
			RichTextBody: "No caption available for this Instagram post.",
			Tags:         []string{},
		}
	}

	content, err := e.generate(ctx, caption)
	if err != nil {
		e.logger.Warn("enhancement failed, using fallback extraction",
			slog.String("post_id", post.ID),
			slog.String("error", err.Error()))
		return e.fallback(post)
	}

	return content
}

func (e *Enhancer) generate(ctx context.Context, caption string) (models.EnhancedContent, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, caption)},
		},
		Temperature: e.config.Temperature,
		MaxTokens:   e.config.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return models.EnhancedContent{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return models.EnhancedContent{}, fmt.Errorf("openai api returned no choices")
	}

	var content models.EnhancedContent
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &content); err != nil {
		return models.EnhancedContent{}, fmt.Errorf("invalid JSON in openai response: %w", err)
	}

	if content.Title == "" || content.RichTextBody == "" {
		return models.EnhancedContent{}, fmt.Errorf("openai response missing title or body")
	}

	if content.Tags == nil {
		content.Tags = []string{}
	}

	return content, nil
}

// fallback derives content from the caption alone.
func (e *Enhancer) fallback(post models.InstagramPost) models.EnhancedContent {
	title := textutil.ExtractTitle(post.Caption)
	if title == "" {
		title = "Post " + post.ID
	}

	description := textutil.ExtractDescription(post.Caption)
	if description == "" {
		description = "Instagram post imported automatically"
	}

	return models.EnhancedContent{
		Title:        title,
		Description:  description,
		RichTextBody: post.Caption,
		Tags:         textutil.ExtractHashtags(post.Caption),
	}
}
