package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// TaskKind enumerates supported generation task categories.
type TaskKind string

const (
	TaskKindBanner TaskKind = "banner"
	TaskKindTitle  TaskKind = "title"
)

// TaskState enumerates task lifecycle states.
type TaskState string

const (
	TaskStatePending   TaskState = "pending"
	TaskStateRunning   TaskState = "running"
	TaskStateSucceeded TaskState = "succeeded"
	TaskStateFailed    TaskState = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s TaskState) Terminal() bool {
	return s == TaskStateSucceeded || s == TaskStateFailed
}

// Style enumerates supported visual styles.
type Style string

const (
	StylePhotorealistic Style = "Photorealistic"
	StyleCyberpunk      Style = "Cyberpunk"
	StyleWatercolor     Style = "Watercolor"
	StyleAnime          Style = "Anime"
	StyleDefault        Style = "Default"
)

// Valid reports whether the style is one of the supported values.
func (s Style) Valid() bool {
	switch s {
	case StylePhotorealistic, StyleCyberpunk, StyleWatercolor, StyleAnime, StyleDefault:
		return true
	}
	return false
}

// AspectRatio enumerates supported banner aspect ratios.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectWide      AspectRatio = "16:9"
	AspectVertical  AspectRatio = "9:16"
	AspectClassical AspectRatio = "4:3"
)

// Valid reports whether the aspect ratio is supported.
func (a AspectRatio) Valid() bool {
	switch a {
	case AspectSquare, AspectWide, AspectVertical, AspectClassical:
		return true
	}
	return false
}

// Size maps the aspect ratio to concrete render dimensions.
func (a AspectRatio) Size() (width, height int) {
	switch a {
	case AspectWide:
		return 1920, 1080
	case AspectVertical:
		return 1080, 1920
	case AspectClassical:
		return 1600, 1200
	default:
		return 1024, 1024
	}
}

const (
	PromptMinLength = 5
	PromptMaxLength = 500
)

// GenerationRequest is the immutable payload submitted by a client.
type GenerationRequest struct {
	Prompt       string      `json:"prompt"`
	Style        Style       `json:"style"`
	AspectRatio  AspectRatio `json:"aspect_ratio"`
	VariantCount int         `json:"variant_count"`
}

// Normalize fills defaults for optional enum fields prior to validation.
// VariantCount is deliberately left alone: an absent count is defaulted at
// the decoding boundary, while an explicit zero must fail validation.
func (r *GenerationRequest) Normalize() {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Style == "" {
		r.Style = StyleDefault
	}
	if r.AspectRatio == "" {
		r.AspectRatio = AspectSquare
	}
}

// Validate rejects malformed requests before a task is ever created.
func (r GenerationRequest) Validate(maxVariants int) error {
	n := utf8.RuneCountInString(r.Prompt)
	if n < PromptMinLength || n > PromptMaxLength {
		return fmt.Errorf("%w: prompt length must be between %d and %d characters", ErrInvalidRequest, PromptMinLength, PromptMaxLength)
	}
	if !r.Style.Valid() {
		return fmt.Errorf("%w: unsupported style %q", ErrInvalidRequest, r.Style)
	}
	if !r.AspectRatio.Valid() {
		return fmt.Errorf("%w: unsupported aspect ratio %q", ErrInvalidRequest, r.AspectRatio)
	}
	if r.VariantCount < 1 || r.VariantCount > maxVariants {
		return fmt.Errorf("%w: variant_count must be between 1 and %d", ErrInvalidRequest, maxVariants)
	}
	return nil
}

// Marketing is the structured copy produced for one banner variant.
type Marketing struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	CTA      string `json:"cta"`
}

// VariantStatus distinguishes genuine generation from fallback content.
type VariantStatus string

const (
	VariantOK       VariantStatus = "ok"
	VariantDegraded VariantStatus = "degraded"
)

// Variant is one completed banner attempt. Write-once: never mutated after
// the pipeline returns it.
type Variant struct {
	Index     int           `json:"index"`
	Marketing Marketing     `json:"marketing"`
	ImageRef  string        `json:"image_ref"`
	Status    VariantStatus `json:"status"`
}

// Task tracks the lifecycle of one generation job. Owned exclusively by the
// worker execution while running; read-only for everyone else.
type Task struct {
	ID           string
	Kind         TaskKind
	State        TaskState
	Progress     int
	Request      GenerationRequest
	Variants     []Variant
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ExpiresAt    time.Time
}

// NewTask constructs a pending task for the given request.
func NewTask(id string, kind TaskKind, req GenerationRequest, retention time.Duration) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        id,
		Kind:      kind,
		State:     TaskStatePending,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(retention),
	}
}

// Expired reports whether the retention window has elapsed.
func (t *Task) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
