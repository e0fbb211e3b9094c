package clients

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"nnm-backend/internal/config"
)

// Name registry ABI: the read surface the resolver and indexer consume,
// plus the three mint entry points.
const registryABI = `[
	{"constant":true,"inputs":[],"name":"owner","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"minter","type":"address"}],"name":"authorizedMinters","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"usdAmount","type":"uint256"}],"name":"getMaticCost","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"name","type":"string"}],"name":"isAvailable","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"name","type":"string"},{"name":"tier","type":"uint8"},{"name":"uri","type":"string"}],"name":"reserveName","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"name","type":"string"},{"name":"tier","type":"uint8"},{"name":"uri","type":"string"}],"name":"authorizedMint","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"name","type":"string"},{"name":"tier","type":"uint8"},{"name":"uri","type":"string"}],"name":"mintPublic","outputs":[],"payable":true,"type":"function"}
]`

// RegistryClient is the typed client for the on-chain name registry.
type RegistryClient struct {
	client   *ethclient.Client
	abi      abi.ABI
	address  common.Address
	chainID  *big.Int
	gasLimit uint64

	// Relayer key; nil when the service only prepares mints and leaves
	// submission to the caller's wallet.
	relayerKey  *ecdsa.PrivateKey
	relayerFrom common.Address
}

// DialRegistry connects to the first reachable RPC endpoint and verifies
// the node serves the configured chain before any read or write is
// issued. Reads against the wrong network are a correctness bug, not a
// recoverable condition.
func DialRegistry(ctx context.Context, cfg config.ChainConfig) (*RegistryClient, error) {
	if cfg.RegistryContract == "" {
		return nil, fmt.Errorf("registry contract address is not configured")
	}
	if len(cfg.RPCEndpoints) == 0 {
		return nil, fmt.Errorf("no RPC endpoints configured")
	}

	parsedABI, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry ABI: %w", err)
	}

	var client *ethclient.Client
	var lastErr error
	for _, endpoint := range cfg.RPCEndpoints {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		c, err := ethclient.DialContext(dialCtx, endpoint)
		if err != nil {
			cancel()
			lastErr = err
			continue
		}

		chainID, err := c.ChainID(dialCtx)
		cancel()
		if err != nil {
			c.Close()
			lastErr = err
			continue
		}
		if chainID.Int64() != cfg.ChainID {
			c.Close()
			lastErr = fmt.Errorf("endpoint %s serves chain %d, expected %d", endpoint, chainID.Int64(), cfg.ChainID)
			continue
		}

		logrus.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"chain_id": chainID.Int64(),
			"contract": cfg.RegistryContract,
		}).Info("✅ Connected to name registry")
		client = c
		break
	}
	if client == nil {
		return nil, fmt.Errorf("failed to connect to any RPC endpoint: %w", lastErr)
	}

	rc := &RegistryClient{
		client:   client,
		abi:      parsedABI,
		address:  common.HexToAddress(cfg.RegistryContract),
		chainID:  big.NewInt(cfg.ChainID),
		gasLimit: cfg.GasLimit,
	}

	if cfg.RelayerPrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.RelayerPrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid relayer private key: %w", err)
		}
		rc.relayerKey = key
		rc.relayerFrom = crypto.PubkeyToAddress(key.PublicKey)
		logrus.WithField("relayer", rc.relayerFrom.Hex()).Info("🔑 Relayer signing enabled")
	}

	return rc, nil
}

// Close releases the underlying RPC connection.
func (c *RegistryClient) Close() {
	c.client.Close()
}

// CanSubmit reports whether a relayer key is configured for server-side
// transaction submission.
func (c *RegistryClient) CanSubmit() bool {
	return c.relayerKey != nil
}

func (c *RegistryClient) call(ctx context.Context, out interface{}, method string, args ...interface{}) error {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &c.address, Data: data}
	result, err := c.client.CallContract(ctx, msg, nil)
	if err != nil {
		return fmt.Errorf("%s call failed: %w", method, err)
	}

	if err := c.abi.UnpackIntoInterface(out, method, result); err != nil {
		return fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return nil
}

// Owner reads the current contract owner address.
func (c *RegistryClient) Owner(ctx context.Context) (common.Address, error) {
	var owner common.Address
	err := c.call(ctx, &owner, "owner")
	return owner, err
}

// AuthorizedMinter reads whitelist membership for an address.
func (c *RegistryClient) AuthorizedMinter(ctx context.Context, addr common.Address) (bool, error) {
	var authorized bool
	err := c.call(ctx, &authorized, "authorizedMinters", addr)
	return authorized, err
}

// MaticCost reads the oracle-derived native-token cost for a USD amount
// scaled to 18 decimals.
func (c *RegistryClient) MaticCost(ctx context.Context, usdWei *big.Int) (*big.Int, error) {
	cost := new(big.Int)
	err := c.call(ctx, &cost, "getMaticCost", usdWei)
	return cost, err
}

// IsAvailable reports whether a name is still unregistered.
func (c *RegistryClient) IsAvailable(ctx context.Context, name string) (bool, error) {
	var available bool
	err := c.call(ctx, &available, "isAvailable", name)
	return available, err
}

// TokenURI reads the metadata URI recorded for a token.
func (c *RegistryClient) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	var uri string
	err := c.call(ctx, &uri, "tokenURI", tokenID)
	return uri, err
}

// OwnerOf reads the current holder of a token.
func (c *RegistryClient) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	var owner common.Address
	err := c.call(ctx, &owner, "ownerOf", tokenID)
	return owner, err
}

// BalanceOf reads the number of tokens held by an address.
func (c *RegistryClient) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	balance := new(big.Int)
	err := c.call(ctx, &balance, "balanceOf", addr)
	return balance, err
}

// TotalSupply reads the number of minted tokens.
func (c *RegistryClient) TotalSupply(ctx context.Context) (*big.Int, error) {
	supply := new(big.Int)
	err := c.call(ctx, &supply, "totalSupply")
	return supply, err
}

// SubmitMint signs and broadcasts one of the three mint entry points.
// value must be nil except for mintPublic.
func (c *RegistryClient) SubmitMint(ctx context.Context, method, name string, tier uint8, uri string, value *big.Int) (*types.Transaction, error) {
	if c.relayerKey == nil {
		return nil, fmt.Errorf("no relayer key configured")
	}

	data, err := c.abi.Pack(method, name, tier, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	nonce, err := c.client.PendingNonceAt(ctx, c.relayerFrom)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	if value == nil {
		value = big.NewInt(0)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &c.address,
		Value:    value,
		Gas:      c.gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.relayerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"method":  method,
		"name":    name,
		"tier":    tier,
		"tx_hash": signed.Hash().Hex(),
		"value":   value.String(),
	}).Info("📤 Mint transaction broadcast")

	return signed, nil
}

// WaitConfirmed blocks until the transaction is mined and checks the
// receipt status.
func (c *RegistryClient) WaitConfirmed(ctx context.Context, tx *types.Transaction) error {
	receipt, err := bind.WaitMined(ctx, c.client, tx)
	if err != nil {
		return fmt.Errorf("failed waiting for receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return nil
}
