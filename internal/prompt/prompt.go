// Package prompt builds the instructions sent to the text and image backends.
package prompt

import (
	"fmt"
	"strings"

	"bannergen/internal/domain"
)

// styleModifiers appends technical vocabulary the diffusion models respond to.
var styleModifiers = map[domain.Style]string{
	domain.StylePhotorealistic: "highly detailed, cinematic lighting, 8k, volumetric light, hyper-realistic, DSLR photo",
	domain.StyleCyberpunk:      "neon, holographic effects, rain, synthwave, dark urban, futuristic city, octane render",
	domain.StyleWatercolor:     "delicate brushstrokes, soft colors, ink splash, traditional media, canvas texture, beautiful composition",
	domain.StyleAnime:          "manga style, vibrant colors, clean lines, cel shaded, trending on Pixiv",
	domain.StyleDefault:        "high quality, detailed, visually appealing",
}

const universalQualityTags = ", artstation, stunning, professional concept art"

// NegativePrompt lists artefacts the image backend should avoid.
const NegativePrompt = "poorly drawn, deformed, blurry, low resolution, bad anatomy, watermark, grainy, worst quality, tiling, extra limbs"

// ImagePrompt assembles the final text-to-image prompt from the topic, style
// keywords and quality boosters.
func ImagePrompt(topic string, style domain.Style, aspect domain.AspectRatio) string {
	modifier, ok := styleModifiers[style]
	if !ok {
		modifier = styleModifiers[domain.StyleDefault]
	}
	clean := strings.Join(strings.Fields(topic), " ")

	sb := &strings.Builder{}
	sb.WriteString(clean)
	sb.WriteString(", ")
	sb.WriteString(modifier)
	sb.WriteString(universalQualityTags)
	if aspect != domain.AspectSquare && aspect != "" {
		fmt.Fprintf(sb, ", aspect ratio %s", aspect)
	}
	return strings.ToLower(strings.TrimSpace(sb.String()))
}

// TextInstruction builds the copywriting instruction for the text backend.
// The variant index is folded in so repeated calls for the same prompt tend
// toward different phrasing.
func TextInstruction(topic string, style domain.Style, variantIndex int) string {
	sb := &strings.Builder{}
	sb.WriteString("You are a professional copywriter. Create short, punchy copy for an advertising banner.\n")
	fmt.Fprintf(sb, "Topic: %s (variant %d)\n", strings.TrimSpace(topic), variantIndex)
	fmt.Fprintf(sb, "Visual style: %s\n", style)
	sb.WriteString(`Respond strictly with JSON matching this schema: {"title":string,"subtitle":string,"cta":string}. `)
	sb.WriteString("The title is at most 5 words, the subtitle is a concrete offer of at most 10 words, ")
	sb.WriteString(`and the cta is a one or two word call to action such as "Buy now". `)
	sb.WriteString("Return only the JSON, no introductions.")
	return sb.String()
}
