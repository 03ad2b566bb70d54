package cli

import (
	"context"
	"errors"

	"github.com/theblitlabs/parity-stake/internal/config"
	"github.com/theblitlabs/parity-stake/internal/dashboard"
	"github.com/theblitlabs/parity-stake/internal/session"
	"github.com/theblitlabs/parity-stake/internal/utils/contextutil"
	"github.com/theblitlabs/parity-stake/internal/utils/errorutil"
	"github.com/theblitlabs/parity-stake/internal/wallet"
	"github.com/theblitlabs/parity-stake/pkg/keystore"
	"github.com/theblitlabs/parity-stake/pkg/stakingpool"
)

// chain bundles what every command needs to talk to the staking contract.
type chain struct {
	cfg       *config.Config
	client    *wallet.Client
	service   *dashboard.Service
	submitter *dashboard.Submitter
}

// connect dials the node with the stored key. With requireKey the command
// fails when no key is stored; otherwise it continues read-only.
func connect(ctx context.Context, cfg *config.Config, requireKey bool) (*chain, error) {
	store, err := keystore.DefaultStore()
	if err != nil {
		return nil, err
	}

	privateKey, err := store.LoadPrivateKey()
	if err != nil {
		if requireKey || !errors.Is(err, keystore.ErrNoKey) {
			return nil, err
		}
		privateKey = nil
	}

	dialCtx, cancel := contextutil.WithTimeout(ctx, cfg.Ethereum.RPCTimeout)
	defer cancel()

	client, err := wallet.Dial(dialCtx, cfg.Ethereum, privateKey)
	if err != nil {
		return nil, errorutil.WrapError(err, "failed to create wallet client")
	}

	pool, err := stakingpool.NewStakingPool(cfg.Ethereum.StakingContract(), client)
	if err != nil {
		client.Close()
		return nil, errorutil.WrapError(err, "failed to bind staking contract")
	}
	contract := stakingpool.NewMetricsStakingPool(pool)

	var submitter *dashboard.Submitter
	if client.HasSigner() {
		submitter = dashboard.NewSubmitter(contract, client)
	} else {
		submitter = dashboard.NewSubmitter(contract, nil)
	}

	return &chain{
		cfg:       cfg,
		client:    client,
		submitter: submitter,
		service: dashboard.NewService(
			dashboard.NewReader(contract),
			submitter,
			cfg.Ethereum.TokenDecimals,
			cfg.Ethereum.TokenSymbol,
		),
	}, nil
}

// signerSession is the connected session of the CLI: the stored key's address.
func (c *chain) signerSession() session.Session {
	if !c.client.HasSigner() {
		return session.Session{}
	}
	addr := c.client.Address()
	return session.Session{Address: &addr}
}

func (c *chain) Close() {
	c.client.Close()
}
