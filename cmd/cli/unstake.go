package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/theblitlabs/parity-stake/internal/utils/cliutil"
	"github.com/theblitlabs/parity-stake/internal/utils/configutil"
	"github.com/theblitlabs/parity-stake/internal/utils/contextutil"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

func NewUnstakeCommand() *cobra.Command {
	log := logger.WithComponent("unstake")

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "unstake",
		Short: "Withdraw the whole stake; the contract deducts an early-exit penalty",
		Flags: map[string]cliutil.Flag{
			waitFlag: {
				Type:        cliutil.FlagTypeBool,
				Shorthand:   "w",
				Description: "Wait for the transaction to be mined",
			},
		},
		RunFunc: func(cmd *cobra.Command, args []string) error {
			wait, err := cmd.Flags().GetBool(waitFlag)
			if err != nil {
				return err
			}
			return executeUnstake(cmd.Context(), wait)
		},
	}, log)
}

func executeUnstake(ctx context.Context, wait bool) error {
	log := logger.WithComponent("unstake")
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := configutil.GetConfig()
	if err != nil {
		return err
	}

	c, err := connect(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer c.Close()

	sess := c.signerSession()

	readCtx, cancel := contextutil.WithTimeout(ctx, cfg.Ethereum.RPCTimeout)
	view := c.service.View(readCtx, sess, "")
	cancel()

	log.Warn().
		Str("staked", view.Staked+" "+view.Symbol).
		Str("estimated_penalty", view.EstimatedPenalty+" "+view.Symbol).
		Msg("Unstaking withdraws the whole stake with a penalty")

	tx, err := c.submitter.Unstake(ctx, sess)
	if err != nil {
		log.Error().Err(err).Msg("Failed to submit unstake transaction")
		return err
	}

	return confirm(ctx, c, "unstake", tx, wait)
}
