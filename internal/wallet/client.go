package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/theblitlabs/parity-stake/internal/config"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

var ErrNoSigner = errors.New("no private key loaded - please authenticate first using 'parity-stake auth'")

// Client is an RPC connection plus an optional signing key. Without a key it
// can only read.
type Client struct {
	*ethclient.Client

	ws         *ethclient.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
}

// Dial connects to the configured node and verifies its chain id. The
// websocket endpoint is optional; when it cannot be reached the client keeps
// working over HTTP only.
func Dial(ctx context.Context, cfg config.EthereumConfig, privateKey *ecdsa.PrivateKey) (*Client, error) {
	log := logger.WithComponent("wallet")

	rpc, err := ethclient.DialContext(ctx, cfg.RPC)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", cfg.RPC, err)
	}

	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if chainID.Cmp(big.NewInt(cfg.ChainID)) != 0 {
		rpc.Close()
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %s", cfg.ChainID, chainID)
	}

	c := &Client{
		Client:  rpc,
		chainID: chainID,
	}
	if privateKey != nil {
		c.privateKey = privateKey
		c.address = crypto.PubkeyToAddress(privateKey.PublicKey)
	}

	if cfg.WSRPC != "" {
		ws, err := ethclient.DialContext(ctx, cfg.WSRPC)
		if err != nil {
			log.Warn().Err(err).Str("ws_rpc", cfg.WSRPC).Msg("Websocket RPC unavailable - falling back to polling")
		} else {
			c.ws = ws
		}
	}

	log.Debug().
		Str("rpc", cfg.RPC).
		Str("chain_id", chainID.String()).
		Bool("signer", c.HasSigner()).
		Msg("Connected to node")

	return c, nil
}

// Close closes both connections
func (c *Client) Close() {
	if c.ws != nil {
		c.ws.Close()
	}
	c.Client.Close()
}

// HasSigner reports whether a private key is loaded
func (c *Client) HasSigner() bool {
	return c.privateKey != nil
}

// Address returns the signer address, or the zero address without a key
func (c *Client) Address() common.Address {
	return c.address
}

// ChainID returns the verified chain ID
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// WS returns the websocket client used for head subscriptions, or nil
func (c *Client) WS() *ethclient.Client {
	return c.ws
}

// TransactOpts returns signing options bound to ctx. Nonce and gas are left
// for bind to fill from the node.
func (c *Client) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.privateKey == nil {
		return nil, ErrNoSigner
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// WaitMined blocks until tx is included and returns its receipt
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.Client, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for %s: %w", tx.Hash().Hex(), err)
	}
	return receipt, nil
}
