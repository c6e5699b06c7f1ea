package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// gas estimates are padded by this percentage
const gasBufferPercent = 20

// ErrNoSigner is returned when a transaction is sent without a configured key
var ErrNoSigner = errors.New("no private key configured for this network")

// Client implements usecase.ChainClient on top of ethclient, signing
// EIP-1559 transactions with a local private key
type Client struct {
	client  *ethclient.Client
	chainID *big.Int
	signer  types.Signer
	key     *ecdsa.PrivateKey
	from    common.Address
}

// NewClient connects to the configured network and verifies its chain ID
func NewClient(ctx context.Context, cfg *config.RuntimeConfig) (*Client, error) {
	if cfg.Network == nil {
		return nil, fmt.Errorf("no network selected (use --network or set default_network)")
	}

	rpc, err := ethclient.DialContext(ctx, cfg.Network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	c, err := newClient(ctx, rpc, cfg.Network.ChainID, cfg.Network.PrivateKey)
	if err != nil {
		rpc.Close()
		return nil, err
	}
	return c, nil
}

func newClient(ctx context.Context, rpc *ethclient.Client, chainID uint64, privateKey string) (*Client, error) {
	// Verify chain ID matches
	networkChainID, err := rpc.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if chainID != 0 && networkChainID.Uint64() != chainID {
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", chainID, networkChainID.Uint64())
	}

	c := &Client{
		client:  rpc,
		chainID: networkChainID,
		signer:  types.LatestSignerForChainID(networkChainID),
	}

	if privateKey != "" {
		key, err := ParsePrivateKey(privateKey)
		if err != nil {
			return nil, err
		}
		c.key = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}

	return c, nil
}

// ParsePrivateKey parses a hex private key with or without 0x prefix
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// From returns the sender address, zero when read-only
func (c *Client) From() common.Address {
	return c.from
}

// ChainID returns the chain ID reported by the node
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	return c.chainID.Uint64(), nil
}

// SendTransaction signs and submits req. Gas is estimated when req.Gas is
// zero; fees follow the current base fee and suggested tip.
func (c *Client) SendTransaction(ctx context.Context, req usecase.TxRequest) (common.Hash, error) {
	if c.key == nil {
		return common.Hash{}, ErrNoSigner
	}

	nonce, err := c.client.PendingNonceAt(ctx, c.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get nonce: %w", err)
	}

	tipCap, err := c.client.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas tip: %w", err)
	}
	head, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get latest header: %w", err)
	}
	feeCap := new(big.Int).Set(tipCap)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	gas := req.Gas
	if gas == 0 {
		estimated, err := c.client.EstimateGas(ctx, ethereum.CallMsg{
			From:  c.from,
			To:    req.To,
			Value: value,
			Data:  req.Data,
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
		}
		gas = estimated + estimated*gasBufferPercent/100
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        req.To,
		Value:     value,
		Data:      req.Data,
	})

	signedTx, err := types.SignTx(tx, c.signer, c.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}

	return signedTx.Hash(), nil
}

// TransactionReceipt returns ethereum.NotFound while the transaction is pending
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return c.client.TransactionReceipt(ctx, hash)
}

// CodeAt returns the code at address in the latest block
func (c *Client) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	return c.client.CodeAt(ctx, address, nil)
}

// CallContract performs a read-only call against the latest block
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.client.CallContract(ctx, ethereum.CallMsg{
		From: c.from,
		To:   &to,
		Data: data,
	}, nil)
}

// Close closes the underlying RPC connection
func (c *Client) Close() {
	c.client.Close()
}

// Ensure Client implements ChainClient
var _ usecase.ChainClient = (*Client)(nil)
