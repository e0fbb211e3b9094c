// Package artwork renders the visual card for a registered name and
// builds the metadata document pinned alongside it. Rendering is
// deterministic: the same (name, tier) pair always produces the same
// bytes, with no randomness or wall-clock dependent visuals.
package artwork

import (
	"encoding/base64"

	"nnm-backend/internal/tiers"
)

// Artifact is a rendered card image ready for publishing.
type Artifact struct {
	ImageBytes []byte
	MimeType   string
}

// CardRenderer renders the card for a (name, tier) pair. The name must
// already be sanitized; unknown tiers fall back to the default tier's
// visual theme.
type CardRenderer interface {
	RenderCard(name string, tier tiers.ID) (*Artifact, error)
}

// DataURI encodes an artifact as a base64 data URI, the form embedded
// directly into metadata in svg image mode.
func (a *Artifact) DataURI() string {
	return "data:" + a.MimeType + ";base64," + base64.StdEncoding.EncodeToString(a.ImageBytes)
}
