package marketing

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bannergen/internal/domain"
)

const (
	fallbackTitleMax = 60

	fallbackSubtitle = "A unique offer, just for you"
	fallbackCTA      = "Learn more"
)

var titleCaser = cases.Title(language.English)

// Fallback synthesizes a deterministic marketing record when the text backend
// failed or returned nothing parseable. The raw model output is preferred as
// title material; the original user prompt is the last resort.
func Fallback(raw, userPrompt string) domain.Marketing {
	source := strings.TrimSpace(raw)
	if source == "" {
		source = strings.TrimSpace(userPrompt)
	}
	source = strings.Join(strings.Fields(source), " ")

	return domain.Marketing{
		Title:    titleCaser.String(clip(source, fallbackTitleMax)),
		Subtitle: fallbackSubtitle,
		CTA:      fallbackCTA,
	}
}

func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
