package cli

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/theblitlabs/parity-stake/internal/session"
	"github.com/theblitlabs/parity-stake/internal/utils/cliutil"
	"github.com/theblitlabs/parity-stake/internal/utils/configutil"
	"github.com/theblitlabs/parity-stake/internal/utils/contextutil"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

func NewBalanceCommand() *cobra.Command {
	log := logger.WithComponent("balance")

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "balance",
		Short: "Show staked balance, pending rewards and the estimated unstake penalty",
		Flags: map[string]cliutil.Flag{
			"address": {
				Type:        cliutil.FlagTypeString,
				Shorthand:   "a",
				Description: "Address to inspect (defaults to the stored wallet)",
			},
		},
		RunFunc: func(cmd *cobra.Command, args []string) error {
			address, err := cmd.Flags().GetString("address")
			if err != nil {
				return err
			}
			return executeBalance(cmd.Context(), address)
		},
	}, log)
}

func executeBalance(ctx context.Context, address string) error {
	log := logger.WithComponent("balance")
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := configutil.GetConfig()
	if err != nil {
		return err
	}

	c, err := connect(ctx, cfg, address == "")
	if err != nil {
		return err
	}
	defer c.Close()

	sess := c.signerSession()
	if address != "" {
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid address %q", address)
		}
		addr := common.HexToAddress(address)
		sess = session.Session{Address: &addr}
	}

	readCtx, cancel := contextutil.WithTimeout(ctx, cfg.Ethereum.RPCTimeout)
	defer cancel()

	view := c.service.View(readCtx, sess, "")
	symbol := " " + view.Symbol

	log.Info().
		Str("address", view.Address).
		Str("staking_contract", cfg.Ethereum.StakingContract().Hex()).
		Str("staked", view.Staked+symbol).
		Str("pending_rewards", view.PendingRewards+symbol).
		Str("estimated_penalty", view.EstimatedPenalty+symbol).
		Msg("Current stake info")

	return nil
}
