package artwork

import (
	"nnm-backend/internal/tiers"
)

// defaultDescription is the per-deployment description block attached to
// every metadata document. It is static by design: the description never
// varies per asset.
const defaultDescription = `GEN-0 Genesis — NNM Protocol Record

A singular, unreplicable digital artifact.

This digital name is recorded on-chain with a verifiable creation timestamp and immutable registration data under the NNM protocol, serving as a canonical reference layer for historical name precedence within this system.

It represents a Gen-0 registered digital asset and exists solely as a transferable NFT, without renewal, guarantees, utility promises, or dependency.

Ownership is absolute, cryptographically secured, and fully transferable.

No subscriptions. No recurring fees. No centralized control.

This record establishes the earliest verifiable origin of the name as recognized by the NNM protocol — a permanent, time-anchored digital inscription preserved on the blockchain.`

// Attribute is a single metadata trait.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// MetadataDocument is the JSON document recorded as the asset's tokenURI
// target.
type MetadataDocument struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	ExternalURL string      `json:"external_url"`
	Attributes  []Attribute `json:"attributes"`
}

// MetadataBuilder builds metadata documents with the deployment's fixed
// description and attribute values.
type MetadataBuilder struct {
	description      string
	externalURL      string
	generation       string
	registrationYear string
	platform         string
}

// NewMetadataBuilder creates a builder. An empty description selects the
// built-in deployment description.
func NewMetadataBuilder(description, externalURL, generation, registrationYear, platform string) *MetadataBuilder {
	if description == "" {
		description = defaultDescription
	}
	return &MetadataBuilder{
		description:      description,
		externalURL:      externalURL,
		generation:       generation,
		registrationYear: registrationYear,
		platform:         platform,
	}
}

// BuildMetadata assembles the metadata document. imageRef must be the
// already-published image reference (an ipfs:// URI or a data URI),
// never a local path.
func (b *MetadataBuilder) BuildMetadata(name string, tier tiers.ID, imageRef string) *MetadataDocument {
	return &MetadataDocument{
		Name:        name,
		Description: b.description,
		Image:       imageRef,
		ExternalURL: b.externalURL,
		Attributes: []Attribute{
			{TraitType: "Generation", Value: b.generation},
			{TraitType: "Tier", Value: tier.DisplayLabel()},
			{TraitType: "Registration Year", Value: b.registrationYear},
			{TraitType: "Platform", Value: b.platform},
		},
	}
}
