package artwork

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/fogleman/gg"

	"nnm-backend/internal/tiers"
)

const (
	cardSize   = 800
	frameInset = 50
	frameSize  = 700
)

// RasterRenderer renders the card as an 800x800 PNG. Marketplace and
// wallet viewers render raster images consistently, so this is the
// default form for pinned artwork.
type RasterRenderer struct {
	fontPath string
	year     string
}

// NewRasterRenderer creates a raster card renderer. fontPath must point
// to a TrueType font available locally at deploy time; rendering fails
// fast when it is missing rather than at mint time.
func NewRasterRenderer(fontPath, year string) (*RasterRenderer, error) {
	if fontPath == "" {
		return nil, fmt.Errorf("font path is not configured")
	}
	if _, err := os.Stat(fontPath); err != nil {
		return nil, fmt.Errorf("font asset not found at %s: %w", fontPath, err)
	}
	return &RasterRenderer{fontPath: fontPath, year: year}, nil
}

// RenderCard rasterizes the card design for the tier's theme.
func (r *RasterRenderer) RenderCard(name string, tier tiers.ID) (*Artifact, error) {
	theme := tiers.Get(tier).Theme

	dc := gg.NewContext(cardSize, cardSize)
	dc.SetHexColor("#050505")
	dc.Clear()

	// Framed panel with the tier's background gradient.
	grad := gg.NewLinearGradient(frameInset, frameInset, frameInset+frameSize, frameInset+frameSize)
	grad.AddColorStop(0, hexColor(theme.BackgroundStart))
	grad.AddColorStop(1, hexColor(theme.BackgroundEnd))
	dc.SetFillStyle(grad)
	dc.DrawRoundedRectangle(frameInset, frameInset, frameSize, frameSize, 40)
	dc.Fill()

	dc.SetHexColor(theme.Border)
	dc.SetLineWidth(6)
	dc.DrawRoundedRectangle(frameInset, frameInset, frameSize, frameSize, 40)
	dc.Stroke()

	// Faint inner border.
	br, bg, bb := hexRGB(theme.Border)
	dc.SetRGBA255(br, bg, bb, 102)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(70, 70, 660, 660, 30)
	dc.Stroke()

	if err := dc.LoadFontFace(r.fontPath, 32); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetHexColor("#FFD700")
	dc.DrawStringAnchored("GEN-0 GENESIS", cardSize/2, 200, 0.5, 0.5)

	dc.SetHexColor(theme.Border)
	dc.SetLineWidth(1)
	dc.DrawLine(200, 240, 600, 240)
	dc.Stroke()

	if err := dc.LoadFontFace(r.fontPath, 80); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetHexColor("#FFD700")
	dc.DrawStringAnchored(strings.ToUpper(name), cardSize/2, 420, 0.5, 0.5)

	dc.SetHexColor(theme.Border)
	dc.DrawLine(200, 560, 600, 560)
	dc.Stroke()

	if err := dc.LoadFontFace(r.fontPath, 24); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetRGBA255(255, 255, 255, 178)
	dc.DrawStringAnchored("OWNED & MINTED", cardSize/2, 620, 0.5, 0.5)

	if err := dc.LoadFontFace(r.fontPath, 28); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetHexColor(theme.Border)
	dc.DrawStringAnchored(r.year, cardSize/2, 670, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}

	return &Artifact{
		ImageBytes: buf.Bytes(),
		MimeType:   "image/png",
	}, nil
}
