// Package tiers is the single source of truth for the three mint tiers:
// their contract indices, labels, USD prices and visual themes. Every
// renderer and handler consumes this table; tier styling must never be
// re-declared elsewhere.
package tiers

import (
	"fmt"
	"math/big"
	"strings"
)

// ID mirrors the on-chain tier index.
type ID uint8

const (
	Immortal ID = iota
	Elite
	Founder
)

// DefaultTier is the visual and pricing fallback for unrecognized tier
// values. Unknown tiers render with Founder styling, they do not error.
const DefaultTier = Founder

// Theme is the visual styling for one tier: a background gradient pair
// and an accent/border color.
type Theme struct {
	BackgroundStart string
	BackgroundEnd   string
	Border          string
	Accent          string
}

// Config is the static configuration of one tier.
type Config struct {
	Label    string
	USDPrice int64 // whole US dollars
	Theme    Theme
}

var table = map[ID]Config{
	Immortal: {
		Label:    "immortal",
		USDPrice: 50,
		Theme: Theme{
			BackgroundStart: "#0a0a0a",
			BackgroundEnd:   "#1c1c1c",
			Border:          "#FCD535",
			Accent:          "#FCD535",
		},
	},
	Elite: {
		Label:    "elite",
		USDPrice: 30,
		Theme: Theme{
			BackgroundStart: "#2b0505",
			BackgroundEnd:   "#4a0a0a",
			Border:          "#ff3232",
			Accent:          "#ff3232",
		},
	},
	Founder: {
		Label:    "founder",
		USDPrice: 10,
		Theme: Theme{
			BackgroundStart: "#001f24",
			BackgroundEnd:   "#003840",
			Border:          "#008080",
			Accent:          "#4db6ac",
		},
	},
}

var weiPerDollar = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// All returns the tier IDs in contract order.
func All() []ID {
	return []ID{Immortal, Elite, Founder}
}

// Get returns the configuration of a tier, falling back to the default
// tier for unknown values.
func Get(id ID) Config {
	if cfg, ok := table[id]; ok {
		return cfg
	}
	return table[DefaultTier]
}

// Valid reports whether id is one of the three defined tiers.
func Valid(id ID) bool {
	_, ok := table[id]
	return ok
}

// String returns the lowercase tier label.
func (id ID) String() string {
	return Get(id).Label
}

// DisplayLabel returns the title-cased tier label used in metadata
// attributes, e.g. "Founder".
func (id ID) DisplayLabel() string {
	label := Get(id).Label
	return strings.ToUpper(label[:1]) + label[1:]
}

// Index returns the tier index as passed to the registry contract.
func (id ID) Index() uint8 {
	return uint8(id)
}

// USDWei returns the tier's USD price scaled to 18 decimals, the unit
// the registry's getMaticCost oracle conversion expects.
func (id ID) USDWei() *big.Int {
	return new(big.Int).Mul(big.NewInt(Get(id).USDPrice), weiPerDollar)
}

// Parse resolves a tier from a label or numeric index string. An empty
// value resolves to the default tier; anything else must name a real
// tier, so a typo cannot silently price as Founder.
func Parse(s string) (ID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultTier, nil
	case "0", "immortal":
		return Immortal, nil
	case "1", "elite":
		return Elite, nil
	case "2", "founder":
		return Founder, nil
	default:
		return DefaultTier, fmt.Errorf("unknown tier %q", s)
	}
}
