package text

import (
	"context"
	"encoding/json"
	"strings"
)

// Static produces synthetic banner copy without calling any service. Used
// when no API key is configured so the pipeline stays exercisable end to end.
type Static struct{}

func NewStatic() *Static {
	return &Static{}
}

// Complete returns a canned JSON record derived from the longest words of the
// instruction, mirroring what a well-behaved model would send back.
func (s *Static) Complete(ctx context.Context, instruction string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var keywords []string
	for _, word := range strings.Fields(instruction) {
		word = strings.Trim(word, `.,:;"'()`)
		if len(word) > 5 && len(keywords) < 3 {
			keywords = append(keywords, strings.ToLower(word))
		}
	}
	topic := strings.Join(keywords, " ")
	if topic == "" {
		topic = "your product"
	}
	record := map[string]string{
		"title":    "Discover " + topic,
		"subtitle": "An offer worth a closer look",
		"cta":      "Learn more",
	}
	out, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

var _ Generator = (*Static)(nil)
