package render

import (
	"strconv"
	"strings"

	"github.com/formloom/formloom/model"
)

// Branding defaults applied when a form omits a value.
const (
	DefaultPrimaryColor    = "#2563eb"
	DefaultBackgroundColor = "#ffffff"
	DefaultSuccessColor    = "#16a34a"
	DefaultFontFamily      = "Inter"
	DefaultBorderRadiusPx  = 8
	DefaultBorderWidthPx   = 1
)

// fontSizePx maps font size tiers to pixel values. The "sm" tier is the
// default.
var fontSizePx = map[string]int{
	model.FontXS:   12,
	model.FontSM:   14,
	model.FontBase: 16,
	model.FontLG:   18,
}

// namedRadiusPx maps named radii to pixel values.
var namedRadiusPx = map[string]int{
	"none":   0,
	"medium": 8,
	"large":  16,
	"full":   9999,
}

// ResolveStyle collapses a form's branding into one concrete style value,
// applying the documented default for every omitted setting. It is computed
// once per render pass and threaded into every render branch.
func ResolveStyle(b model.Branding) model.ResolvedStyle {
	s := model.ResolvedStyle{
		PrimaryColor:    b.PrimaryColor,
		BackgroundColor: b.BackgroundColor,
		SuccessColor:    b.SuccessColor,
		FontFamily:      b.FontFamily,
		FontSizePx:      fontSizePx[model.FontSM],
		BorderRadiusPx:  DefaultBorderRadiusPx,
		BorderWidthPx:   DefaultBorderWidthPx,
		InputStyle:      model.InputDefault,
		LogoURL:         b.LogoURL,
	}

	if s.PrimaryColor == "" {
		s.PrimaryColor = DefaultPrimaryColor
	}
	if s.BackgroundColor == "" {
		s.BackgroundColor = DefaultBackgroundColor
	}
	if s.SuccessColor == "" {
		s.SuccessColor = DefaultSuccessColor
	}
	if s.FontFamily == "" {
		s.FontFamily = DefaultFontFamily
	}
	if px, ok := fontSizePx[b.FontSize]; ok {
		s.FontSizePx = px
	}
	if px, ok := parseRadius(b.BorderRadius); ok {
		s.BorderRadiusPx = px
	}
	if b.BorderWidth != nil && *b.BorderWidth >= 0 {
		s.BorderWidthPx = *b.BorderWidth
	}
	switch b.InputStyle {
	case model.InputFilled, model.InputFlushed:
		s.InputStyle = b.InputStyle
	}
	return s
}

// parseRadius accepts named radii ("none", "medium", "large", "full") and
// pixel values ("12" or "12px").
func parseRadius(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	if px, ok := namedRadiusPx[raw]; ok {
		return px, true
	}
	n, err := strconv.Atoi(strings.TrimSuffix(raw, "px"))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
