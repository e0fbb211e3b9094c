package mint

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"nnm-backend/internal/artwork"
	"nnm-backend/internal/clients"
	"nnm-backend/internal/metrics"
	"nnm-backend/internal/tiers"
	"nnm-backend/internal/utils"
)

// ImageMode selects the published image form.
const (
	ImageModePNG = "png"
	ImageModeSVG = "svg"
)

// Publisher is the content-addressed upload surface the pipeline needs.
type Publisher interface {
	PinFile(ctx context.Context, data []byte, filename string) (string, error)
	PinJSON(ctx context.Context, content interface{}, name string) (string, error)
}

// Submitter submits and confirms mint transactions. A nil submitter or
// one that cannot submit leaves submission to the caller's wallet.
type Submitter interface {
	CanSubmit() bool
	SubmitMint(ctx context.Context, method, name string, tier uint8, uri string, value *big.Int) (*types.Transaction, error)
	WaitConfirmed(ctx context.Context, tx *types.Transaction) error
}

// Request is one mint attempt's input.
type Request struct {
	Name      string
	Tier      tiers.ID
	Requester string
}

// Result is the outcome of a prepared (and possibly submitted) mint.
type Result struct {
	AttemptID string       `json:"attempt_id"`
	Name      string       `json:"name"`
	Tier      tiers.ID     `json:"tier"`
	ImageURI  string       `json:"image_uri"`
	TokenURI  string       `json:"token_uri"`
	Plan      *PaymentPlan `json:"plan,omitempty"`
	TxHash    string       `json:"tx_hash,omitempty"`
	Submitted bool         `json:"submitted"`
}

// Pipeline runs the full mint flow: render the card, publish the image
// and then the metadata (the metadata embeds the image reference, so the
// ordering is strict), resolve the payment plan, and submit the
// transaction when a relayer is configured. Artifacts are rendered fresh per attempt and never cached.
type Pipeline struct {
	renderer  artwork.CardRenderer
	metadata  *artwork.MetadataBuilder
	publisher Publisher
	resolver  *Resolver
	submitter Submitter
	tracker   *Tracker
	imageMode string
}

// NewPipeline wires the mint pipeline. submitter may be nil.
func NewPipeline(
	renderer artwork.CardRenderer,
	metadata *artwork.MetadataBuilder,
	publisher Publisher,
	resolver *Resolver,
	submitter Submitter,
	tracker *Tracker,
	imageMode string,
) *Pipeline {
	return &Pipeline{
		renderer:  renderer,
		metadata:  metadata,
		publisher: publisher,
		resolver:  resolver,
		submitter: submitter,
		tracker:   tracker,
		imageMode: imageMode,
	}
}

// Tracker exposes the attempt tracker for handlers and listeners.
func (p *Pipeline) Tracker() *Tracker {
	return p.tracker
}

// Preview renders the card without publishing anything.
func (p *Pipeline) Preview(name string, tier tiers.ID) (*artwork.Artifact, error) {
	sanitized, err := utils.SanitizeName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return p.renderer.RenderCard(sanitized, tier)
}

// Run executes one mint attempt end to end. Any failure is terminal for
// the attempt; pinned-but-unused artifacts are tolerated orphans.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	name, err := utils.SanitizeName(req.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	attempt, err := p.tracker.Begin(name, req.Tier, req.Requester)
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"attempt_id": attempt.ID,
		"name":       name,
		"tier":       req.Tier.String(),
	})
	log.Info("🎨 Mint attempt started")

	result, err := p.run(ctx, attempt.ID, name, req)
	if err != nil {
		p.tracker.Fail(attempt.ID, err)
		metrics.MintAttemptsTotal.WithLabelValues("failed").Inc()
		log.WithField("error", err.Error()).Warn("Mint attempt failed")
		return nil, err
	}

	metrics.MintAttemptsTotal.WithLabelValues("succeeded").Inc()
	log.WithField("token_uri", result.TokenURI).Info("✅ Mint attempt completed")
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, attemptID, name string, req Request) (*Result, error) {
	timer := metrics.NewTimer(metrics.RenderDuration)
	artifact, err := p.renderer.RenderCard(name, req.Tier)
	timer.ObserveDuration()
	if err != nil {
		return nil, fmt.Errorf("failed to render card: %w", err)
	}

	// Image publication must complete before the metadata document is
	// finalized: the metadata embeds the image reference.
	imageRef, imageURI, err := p.publishImage(ctx, name, artifact)
	if err != nil {
		return nil, err
	}

	doc := p.metadata.BuildMetadata(name, req.Tier, imageRef)
	metadataHash, err := p.publisher.PinJSON(ctx, doc, name+"-metadata.json")
	if err != nil {
		metrics.PinFailuresTotal.WithLabelValues("metadata").Inc()
		return nil, fmt.Errorf("%w: metadata: %v", ErrPublishFailed, err)
	}
	tokenURI := clients.IPFSURI(metadataHash)

	p.tracker.Transition(attemptID, StateResolvingAuthorization, func(a *Attempt) {
		a.ImageURI = imageURI
		a.TokenURI = tokenURI
	})

	plan, err := p.resolver.ResolvePath(ctx, req.Requester, req.Tier, func(s State) {
		p.tracker.Transition(attemptID, s, nil)
	})
	if err != nil {
		return nil, err
	}

	p.tracker.Transition(attemptID, StateReady, nil)

	result := &Result{
		AttemptID: attemptID,
		Name:      name,
		Tier:      req.Tier,
		ImageURI:  imageURI,
		TokenURI:  tokenURI,
		Plan:      plan,
	}

	if p.submitter == nil || !p.submitter.CanSubmit() {
		// No relayer key: the wallet submits with the returned plan. The
		// attempt's in-flight slot is released here because no
		// confirmation will ever reach this service; holding it would
		// lock the requester out of all future mints.
		p.tracker.Release(attemptID)
		return result, nil
	}

	p.tracker.Transition(attemptID, StateSubmitting, nil)

	tx, err := p.submitter.SubmitMint(ctx, string(plan.MintFunction), name, req.Tier.Index(), tokenURI, plan.RequiredValueWei)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", classifySubmitError(err), err)
	}
	if err := p.submitter.WaitConfirmed(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: %v", classifySubmitError(err), err)
	}

	result.TxHash = tx.Hash().Hex()
	result.Submitted = true
	p.tracker.Transition(attemptID, StateConfirmed, func(a *Attempt) {
		a.TxHash = result.TxHash
	})

	return result, nil
}

// publishImage returns (imageRef, imageURI). In svg mode the reference
// embedded into metadata is a base64 data URI and nothing is pinned; in
// png mode the image is pinned first and both values are its ipfs:// URI.
func (p *Pipeline) publishImage(ctx context.Context, name string, artifact *artwork.Artifact) (string, string, error) {
	if p.imageMode == ImageModeSVG {
		dataURI := artifact.DataURI()
		return dataURI, dataURI, nil
	}

	hash, err := p.publisher.PinFile(ctx, artifact.ImageBytes, name+".png")
	if err != nil {
		metrics.PinFailuresTotal.WithLabelValues("image").Inc()
		return "", "", fmt.Errorf("%w: image: %v", ErrPublishFailed, err)
	}
	uri := clients.IPFSURI(hash)
	return uri, uri, nil
}
