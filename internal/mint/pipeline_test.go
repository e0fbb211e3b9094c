package mint

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nnm-backend/internal/artwork"
	"nnm-backend/internal/tiers"
)

type recordingPublisher struct {
	calls []string

	fileErr error
	jsonErr error
}

func (p *recordingPublisher) PinFile(ctx context.Context, data []byte, filename string) (string, error) {
	p.calls = append(p.calls, "image:"+filename)
	if p.fileErr != nil {
		return "", p.fileErr
	}
	return "QmImage", nil
}

func (p *recordingPublisher) PinJSON(ctx context.Context, content interface{}, name string) (string, error) {
	p.calls = append(p.calls, "metadata:"+name)
	if p.jsonErr != nil {
		return "", p.jsonErr
	}
	return "QmMeta", nil
}

type stubSubmitter struct {
	canSubmit bool
	submitErr error

	submitted       bool
	submittedMethod string
	submittedValue  *big.Int
}

func (s *stubSubmitter) CanSubmit() bool { return s.canSubmit }

func (s *stubSubmitter) SubmitMint(ctx context.Context, method, name string, tier uint8, uri string, value *big.Int) (*types.Transaction, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.submitted = true
	s.submittedMethod = method
	s.submittedValue = value

	to := common.HexToAddress(walletAddr)
	return types.NewTx(&types.LegacyTx{
		Nonce:    1,
		To:       &to,
		Gas:      21000,
		GasPrice: big.NewInt(1),
		Value:    value,
	}), nil
}

func (s *stubSubmitter) WaitConfirmed(ctx context.Context, tx *types.Transaction) error {
	return nil
}

type stateCapture struct {
	states []State
}

func (c *stateCapture) AttemptUpdated(attempt Attempt) {
	c.states = append(c.states, attempt.State)
}

func newTestPipeline(publisher Publisher, submitter Submitter, imageMode string) (*Pipeline, *Tracker) {
	tracker := NewTracker()
	metadata := artwork.NewMetadataBuilder("", "https://nftnamemarket.com", "GEN-0 Genesis", "2025", "NNM Market")
	resolver := NewResolver(&fakeReader{owner: common.HexToAddress(ownerAddr), cost: eth(1)}, 500)

	return NewPipeline(
		artwork.NewSVGRenderer("2025"),
		metadata,
		publisher,
		resolver,
		submitter,
		tracker,
		imageMode,
	), tracker
}

func TestRunPublishesImageBeforeMetadata(t *testing.T) {
	publisher := &recordingPublisher{}
	pipeline, _ := newTestPipeline(publisher, nil, ImageModePNG)

	result, err := pipeline.Run(context.Background(), Request{
		Name:      "satoshi",
		Tier:      tiers.Founder,
		Requester: walletAddr,
	})
	require.NoError(t, err)

	require.Equal(t, []string{"image:satoshi.png", "metadata:satoshi-metadata.json"}, publisher.calls)
	assert.Equal(t, "ipfs://QmImage", result.ImageURI)
	assert.Equal(t, "ipfs://QmMeta", result.TokenURI)
	assert.Equal(t, MintPublic, result.Plan.MintFunction)
	assert.False(t, result.Submitted)
}

func TestRunSVGModeSkipsImagePin(t *testing.T) {
	publisher := &recordingPublisher{}
	pipeline, _ := newTestPipeline(publisher, nil, ImageModeSVG)

	result, err := pipeline.Run(context.Background(), Request{
		Name:      "satoshi",
		Tier:      tiers.Elite,
		Requester: walletAddr,
	})
	require.NoError(t, err)

	// Only the metadata document is pinned; the image travels inside it
	// as a data URI.
	require.Equal(t, []string{"metadata:satoshi-metadata.json"}, publisher.calls)
	assert.Contains(t, result.ImageURI, "data:image/svg+xml;base64,")
}

func TestRunImagePinFailureAbortsBeforeMetadata(t *testing.T) {
	publisher := &recordingPublisher{fileErr: errors.New("pinning down")}
	submitter := &stubSubmitter{canSubmit: true}
	pipeline, _ := newTestPipeline(publisher, submitter, ImageModePNG)

	_, err := pipeline.Run(context.Background(), Request{
		Name:      "satoshi",
		Tier:      tiers.Founder,
		Requester: walletAddr,
	})
	assert.ErrorIs(t, err, ErrPublishFailed)

	assert.Equal(t, []string{"image:satoshi.png"}, publisher.calls)
	assert.False(t, submitter.submitted)
}

func TestRunMetadataPinFailureAbortsSubmission(t *testing.T) {
	publisher := &recordingPublisher{jsonErr: errors.New("pinning down")}
	submitter := &stubSubmitter{canSubmit: true}
	pipeline, _ := newTestPipeline(publisher, submitter, ImageModePNG)

	_, err := pipeline.Run(context.Background(), Request{
		Name:      "satoshi",
		Tier:      tiers.Founder,
		Requester: walletAddr,
	})
	assert.ErrorIs(t, err, ErrPublishFailed)
	assert.False(t, submitter.submitted)
}

func TestRunRejectsInvalidName(t *testing.T) {
	pipeline, _ := newTestPipeline(&recordingPublisher{}, nil, ImageModePNG)

	_, err := pipeline.Run(context.Background(), Request{Name: "a b", Tier: tiers.Founder, Requester: walletAddr})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = pipeline.Run(context.Background(), Request{Name: "ab", Tier: tiers.Founder, Requester: walletAddr})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRunWalletModeFreesRequesterSlot(t *testing.T) {
	pipeline, tracker := newTestPipeline(&recordingPublisher{}, nil, ImageModePNG)

	first, err := pipeline.Run(context.Background(), Request{
		Name:      "satoshi",
		Tier:      tiers.Founder,
		Requester: walletAddr,
	})
	require.NoError(t, err)

	// Without a relayer the wallet submits and no confirmation ever
	// reaches the service, so the same requester must be able to mint
	// again right away.
	second, err := pipeline.Run(context.Background(), Request{
		Name:      "vitalik",
		Tier:      tiers.Founder,
		Requester: walletAddr,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.AttemptID, second.AttemptID)

	// The handed-off attempt stays queryable for the status endpoint.
	attempt, ok := tracker.Get(first.AttemptID)
	require.True(t, ok)
	assert.Equal(t, StateReady, attempt.State)
}

func TestRunSubmitterWithoutKeyFreesRequesterSlot(t *testing.T) {
	submitter := &stubSubmitter{canSubmit: false}
	pipeline, _ := newTestPipeline(&recordingPublisher{}, submitter, ImageModePNG)

	_, err := pipeline.Run(context.Background(), Request{
		Name:      "satoshi",
		Tier:      tiers.Founder,
		Requester: walletAddr,
	})
	require.NoError(t, err)
	assert.False(t, submitter.submitted)

	_, err = pipeline.Run(context.Background(), Request{
		Name:      "vitalik",
		Tier:      tiers.Founder,
		Requester: walletAddr,
	})
	assert.NoError(t, err)
}

func TestRunSubmitsWithRelayer(t *testing.T) {
	submitter := &stubSubmitter{canSubmit: true}
	pipeline, tracker := newTestPipeline(&recordingPublisher{}, submitter, ImageModePNG)

	capture := &stateCapture{}
	tracker.AddListener(capture)

	result, err := pipeline.Run(context.Background(), Request{
		Name:      "satoshi",
		Tier:      tiers.Founder,
		Requester: walletAddr,
	})
	require.NoError(t, err)

	assert.True(t, result.Submitted)
	assert.NotEmpty(t, result.TxHash)
	assert.Equal(t, "mintPublic", submitter.submittedMethod)

	want, _ := new(big.Int).SetString("1050000000000000000", 10)
	assert.Equal(t, want, submitter.submittedValue)

	assert.Equal(t, StateConfirmed, capture.states[len(capture.states)-1])

	attempt, ok := tracker.Get(result.AttemptID)
	require.True(t, ok)
	assert.Equal(t, StateConfirmed, attempt.State)
	assert.Equal(t, result.TxHash, attempt.TxHash)
}

func TestRunMapsNameTakenRevert(t *testing.T) {
	submitter := &stubSubmitter{
		canSubmit: true,
		submitErr: errors.New("execution reverted: Name already registered"),
	}
	pipeline, tracker := newTestPipeline(&recordingPublisher{}, submitter, ImageModePNG)

	_, err := pipeline.Run(context.Background(), Request{
		Name:      "satoshi",
		Tier:      tiers.Founder,
		Requester: walletAddr,
	})
	assert.ErrorIs(t, err, ErrNameTaken)

	// The failed attempt is terminal and the requester may retry.
	_, err = pipeline.Run(context.Background(), Request{
		Name:      "satoshi",
		Tier:      tiers.Founder,
		Requester: walletAddr,
	})
	assert.ErrorIs(t, err, ErrNameTaken)
	_ = tracker
}

func TestRunMapsOtherRevertsToRejected(t *testing.T) {
	submitter := &stubSubmitter{
		canSubmit: true,
		submitErr: errors.New("execution reverted: Insufficient payment"),
	}
	pipeline, _ := newTestPipeline(&recordingPublisher{}, submitter, ImageModePNG)

	_, err := pipeline.Run(context.Background(), Request{
		Name:      "satoshi",
		Tier:      tiers.Founder,
		Requester: walletAddr,
	})
	assert.ErrorIs(t, err, ErrTransactionRejected)
}

func TestPreviewDoesNotPublish(t *testing.T) {
	publisher := &recordingPublisher{}
	pipeline, _ := newTestPipeline(publisher, nil, ImageModePNG)

	artifact, err := pipeline.Preview("satoshi", tiers.Immortal)
	require.NoError(t, err)
	assert.NotEmpty(t, artifact.ImageBytes)
	assert.Empty(t, publisher.calls)

	_, err = pipeline.Preview("a b", tiers.Immortal)
	assert.ErrorIs(t, err, ErrValidation)
}
