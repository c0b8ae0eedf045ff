package services

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	plainTextPolicy = bluemonday.StrictPolicy()
	richTextPolicy  = bluemonday.UGCPolicy()

	// Only entities that cannot form markup are decoded; &lt; and &gt; stay encoded.
	plainTextEntities = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`)
)

// sanitizeText strips all markup from free text typed by customers or admins.
func sanitizeText(s string) string {
	return strings.TrimSpace(plainTextEntities.Replace(plainTextPolicy.Sanitize(s)))
}

// sanitizeRichText keeps safe formatting in catalog descriptions
func sanitizeRichText(s string) string {
	return strings.TrimSpace(richTextPolicy.Sanitize(s))
}

// sanitizeOptional cleans s and maps blank input to nil, which clears the column
func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}
