// Package textutil provides the pure text transforms used when deriving
// article content from Instagram captions: slug generation and the
// deterministic fallback extraction of title, description and hashtags.
package textutil

import (
	"regexp"
	"strings"
)

var (
	hashtagRe    = regexp.MustCompile(`#\w+`)
	mentionRe    = regexp.MustCompile(`@\w+`)
	nonSlugRe    = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	newlinesRe   = regexp.MustCompile(`\n+`)
	trailingRe   = regexp.MustCompile(`-+$`)
)

// GenerateSlug derives a URL-safe slug from a title: lowercase, special
// characters stripped, whitespace collapsed to single hyphens, capped at
// 50 characters with no trailing hyphens. Idempotent.
func GenerateSlug(text string) string {
	slug := strings.ToLower(text)
	slug = nonSlugRe.ReplaceAllString(slug, "")
	slug = whitespaceRe.ReplaceAllString(slug, "-")
	if len(slug) > 50 {
		slug = slug[:50]
	}
	return trailingRe.ReplaceAllString(slug, "")
}

// ExtractTitle derives a title from a caption's first line's first
// sentence, with hashtags and mentions removed. Returns empty when the
// caption yields nothing usable (too short after cleaning).
func ExtractTitle(caption string) string {
	if caption == "" {
		return ""
	}

	firstLine := strings.SplitN(caption, "\n", 2)[0]
	firstSentence := strings.SplitN(firstLine, ".", 2)[0]

	clean := hashtagRe.ReplaceAllString(firstSentence, "")
	clean = mentionRe.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)

	if len(clean) <= 5 {
		return ""
	}
	if len(clean) > 100 {
		clean = clean[:100]
	}
	return clean
}

// ExtractDescription derives a meta description from a caption: hashtags
// and mentions stripped, newlines collapsed, truncated to 200 characters
// with an ellipsis. Returns empty for an empty caption.
func ExtractDescription(caption string) string {
	if caption == "" {
		return ""
	}

	clean := hashtagRe.ReplaceAllString(caption, "")
	clean = mentionRe.ReplaceAllString(clean, "")
	clean = newlinesRe.ReplaceAllString(clean, " ")
	clean = strings.TrimSpace(clean)

	if len(clean) > 200 {
		return clean[:200] + "..."
	}
	return clean
}

// ExtractHashtags returns all #word tokens in the caption, in source
// order, with the leading # removed.
func ExtractHashtags(caption string) []string {
	matches := hashtagRe.FindAllString(caption, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1:])
	}
	return tags
}
