package artwork

import (
	"fmt"
	"strings"

	"nnm-backend/internal/tiers"
)

// SVGRenderer renders the card as an 800x800 vector document.
type SVGRenderer struct {
	year string
}

// NewSVGRenderer creates a vector card renderer. The year appears as a
// static caption on the card and is fixed per deployment.
func NewSVGRenderer(year string) *SVGRenderer {
	return &SVGRenderer{year: year}
}

// xmlEscaper escapes the five XML-special characters so user-supplied
// names cannot alter the document structure.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeText escapes user text for embedding into SVG markup.
func EscapeText(s string) string {
	return xmlEscaper.Replace(s)
}

const svgTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<svg width="800" height="800" viewBox="0 0 800 800" xmlns="http://www.w3.org/2000/svg">
<defs>
<linearGradient id="bgGradient" x1="0%%" y1="0%%" x2="100%%" y2="100%%">
<stop offset="0%%" style="stop-color:%[1]s;stop-opacity:1"/>
<stop offset="100%%" style="stop-color:%[2]s;stop-opacity:1"/>
</linearGradient>
<pattern id="subtlePattern" width="20" height="20" patternUnits="userSpaceOnUse">
<circle cx="1" cy="1" r="1" fill="%[3]s" fill-opacity="0.05"/>
</pattern>
<linearGradient id="goldText" x1="0%%" y1="0%%" x2="0%%" y2="100%%">
<stop offset="0%%" stop-color="#FFD700"/>
<stop offset="50%%" stop-color="#B3882A"/>
<stop offset="100%%" stop-color="#FFD700"/>
</linearGradient>
<filter id="glow" x="-20%%" y="-20%%" width="140%%" height="140%%">
<feGaussianBlur stdDeviation="10" result="blur"/>
<feComposite in="SourceGraphic" in2="blur" operator="over"/>
</filter>
</defs>
<rect width="100%%" height="100%%" fill="#050505"/>
<rect x="50" y="50" width="700" height="700" rx="40" ry="40" fill="url(#bgGradient)" stroke="%[3]s" stroke-width="6"/>
<rect x="50" y="50" width="700" height="700" rx="40" ry="40" fill="url(#subtlePattern)"/>
<rect x="70" y="70" width="660" height="660" rx="30" ry="30" fill="none" stroke="%[3]s" stroke-width="1" stroke-opacity="0.4"/>
<text x="400" y="200" text-anchor="middle" font-family="serif" font-size="32" fill="url(#goldText)" letter-spacing="8" font-weight="bold">GEN-0 GENESIS</text>
<line x1="200" y1="240" x2="600" y2="240" stroke="%[3]s" stroke-width="1" opacity="0.5"/>
<text x="400" y="420" text-anchor="middle" dominant-baseline="middle" font-family="serif" font-size="80" fill="url(#goldText)" font-weight="900" letter-spacing="4" filter="url(#glow)">%[4]s</text>
<line x1="200" y1="560" x2="600" y2="560" stroke="%[3]s" stroke-width="1" opacity="0.5"/>
<text x="400" y="620" text-anchor="middle" font-family="sans-serif" font-size="24" fill="#ffffff" letter-spacing="6" opacity="0.7">OWNED &amp; MINTED</text>
<text x="400" y="670" text-anchor="middle" font-family="serif" font-size="28" fill="%[3]s" letter-spacing="4" font-weight="bold">%[5]s</text>
</svg>`

// RenderCard renders the vector card. Identical inputs yield identical
// bytes.
func (r *SVGRenderer) RenderCard(name string, tier tiers.ID) (*Artifact, error) {
	theme := tiers.Get(tier).Theme
	escaped := EscapeText(strings.ToUpper(name))

	svg := fmt.Sprintf(svgTemplate,
		theme.BackgroundStart,
		theme.BackgroundEnd,
		theme.Border,
		escaped,
		r.year,
	)

	return &Artifact{
		ImageBytes: []byte(svg),
		MimeType:   "image/svg+xml",
	}, nil
}
