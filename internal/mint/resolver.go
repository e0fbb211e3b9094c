package mint

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"nnm-backend/internal/tiers"
)

// MintFunction names the registry entry point a plan selects.
type MintFunction string

const (
	MintReserve    MintFunction = "reserveName"
	MintAuthorized MintFunction = "authorizedMint"
	MintPublic     MintFunction = "mintPublic"
)

// PaymentPlan is the resolved mint path for one attempt. Only the
// public path carries a payment value.
type PaymentPlan struct {
	MintFunction     MintFunction `json:"mint_function"`
	RequiredValueWei *big.Int     `json:"required_value_wei,omitempty"`
}

// AuthorizationReader is the registry read surface the resolver needs.
type AuthorizationReader interface {
	Owner(ctx context.Context) (common.Address, error)
	AuthorizedMinter(ctx context.Context, addr common.Address) (bool, error)
	MaticCost(ctx context.Context, usdWei *big.Int) (*big.Int, error)
}

const bpsDenominator = 10000

// Resolver decides which registry entry point a mint attempt must call
// and what native-token value to attach.
type Resolver struct {
	reader       AuthorizationReader
	toleranceBps int64
}

// NewResolver creates a resolver. toleranceBps is the slippage buffer
// applied to the oracle-derived public mint cost (500 = 1.05x).
func NewResolver(reader AuthorizationReader, toleranceBps int64) *Resolver {
	return &Resolver{reader: reader, toleranceBps: toleranceBps}
}

// ResolvePath resolves the payment plan for a requester and tier. The
// three underlying reads are independent and issued concurrently; the
// decision waits for everything it needs. notify, when non-nil, receives
// state transitions as resolution progresses.
//
// Precedence: contract owner first (reserve, free), then whitelist
// (authorized, free), then public at the oracle cost scaled by the
// tolerance. Addresses are compared lowercased.
func (r *Resolver) ResolvePath(ctx context.Context, requester string, tier tiers.ID, notify func(State)) (*PaymentPlan, error) {
	if strings.TrimSpace(requester) == "" {
		return nil, ErrNotConnected
	}
	if !common.IsHexAddress(requester) {
		return nil, fmt.Errorf("%w: invalid requester address %q", ErrValidation, requester)
	}
	if !tiers.Valid(tier) {
		return nil, fmt.Errorf("%w: unknown tier %d", ErrValidation, tier)
	}
	requesterAddr := common.HexToAddress(requester)

	if notify != nil {
		notify(StateResolvingAuthorization)
	}

	var (
		wg sync.WaitGroup

		owner    common.Address
		ownerErr error

		whitelisted    bool
		whitelistedErr error

		cost    *big.Int
		costErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		owner, ownerErr = r.reader.Owner(ctx)
	}()
	go func() {
		defer wg.Done()
		whitelisted, whitelistedErr = r.reader.AuthorizedMinter(ctx, requesterAddr)
	}()
	go func() {
		// The cost read depends on tier only and is issued alongside the
		// authorization reads; its result is consulted only on the
		// public path.
		defer wg.Done()
		cost, costErr = r.reader.MaticCost(ctx, tier.USDWei())
	}()
	wg.Wait()

	if ownerErr != nil {
		return nil, fmt.Errorf("%w: owner read: %v", ErrResolutionFailed, ownerErr)
	}
	if whitelistedErr != nil {
		return nil, fmt.Errorf("%w: whitelist read: %v", ErrResolutionFailed, whitelistedErr)
	}

	// Owner takes priority over whitelist membership.
	if owner == requesterAddr {
		return &PaymentPlan{MintFunction: MintReserve}, nil
	}
	if whitelisted {
		return &PaymentPlan{MintFunction: MintAuthorized}, nil
	}

	if notify != nil {
		notify(StateResolvingPrice)
	}

	if costErr != nil {
		return nil, fmt.Errorf("%w: cost read: %v", ErrResolutionFailed, costErr)
	}
	// A missing or zero cost means the oracle read has not produced a
	// usable amount. Submitting with a zero or stale value is a
	// correctness bug, so this is a hard failure.
	if cost == nil || cost.Sign() <= 0 {
		return nil, fmt.Errorf("%w: oracle cost unavailable for tier %s", ErrResolutionFailed, tier)
	}

	value := new(big.Int).Mul(cost, big.NewInt(bpsDenominator+r.toleranceBps))
	value.Div(value, big.NewInt(bpsDenominator))

	return &PaymentPlan{
		MintFunction:     MintPublic,
		RequiredValueWei: value,
	}, nil
}
