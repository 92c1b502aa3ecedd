// Package marketing turns raw text-backend output into structured banner copy.
package marketing

import (
	"encoding/json"
	"strings"

	"bannergen/internal/domain"
)

// Extract recovers a {title, subtitle, cta} record from free-form model
// output. Models wrap the payload in prose or code fences; only the absence
// of any parseable object is a failure.
func Extract(raw string) (domain.Marketing, bool) {
	fragment := jsonFragment(raw)
	if fragment == "" {
		return domain.Marketing{}, false
	}
	var record domain.Marketing
	if err := json.Unmarshal([]byte(fragment), &record); err != nil {
		return domain.Marketing{}, false
	}
	record.Title = strings.TrimSpace(record.Title)
	record.Subtitle = strings.TrimSpace(record.Subtitle)
	record.CTA = strings.TrimSpace(record.CTA)
	if record.Title == "" {
		return domain.Marketing{}, false
	}
	return record, true
}

// jsonFragment isolates the first balanced-looking object in the text.
func jsonFragment(raw string) string {
	text := trimCodeFence(strings.TrimSpace(raw))
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
