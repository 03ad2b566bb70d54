package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theblitlabs/parity-stake/internal/dashboard"
	"github.com/theblitlabs/parity-stake/internal/utils/cliutil"
	"github.com/theblitlabs/parity-stake/internal/utils/configutil"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

func NewStakeCommand() *cobra.Command {
	log := logger.WithComponent("stake")

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "stake",
		Short: "Stake tokens in the staking pool",
		Example: `  parity-stake stake --amount 1.5
  parity-stake stake -a 10 --wait`,
		Flags: map[string]cliutil.Flag{
			"amount": {
				Type:        cliutil.FlagTypeString,
				Shorthand:   "a",
				Description: "Amount of tokens to stake, in whole tokens",
				Required:    true,
			},
			waitFlag: {
				Type:        cliutil.FlagTypeBool,
				Shorthand:   "w",
				Description: "Wait for the transaction to be mined",
			},
		},
		RunFunc: func(cmd *cobra.Command, args []string) error {
			amount, err := cmd.Flags().GetString("amount")
			if err != nil {
				return err
			}
			wait, err := cmd.Flags().GetBool(waitFlag)
			if err != nil {
				return err
			}

			log.Info().Str("amount", amount).Msg("Processing stake request")
			return executeStake(cmd.Context(), amount, wait)
		},
	}, log)
}

func executeStake(ctx context.Context, amount string, wait bool) error {
	log := logger.WithComponent("stake")
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

	call, err := dashboard.PrepareStake(c.signerSession(), amount, c.service.Decimals())
	if err != nil {
		if errors.Is(err, dashboard.ErrStakeDisabled) {
			return fmt.Errorf("invalid stake amount %q: must be a positive number", amount)
		}
		return err
	}

	log.Info().
		Str("amount", dashboard.FormatUnits(call.Amount, c.service.Decimals())+" "+c.service.Symbol()).
		Str("wallet", call.From.Hex()).
		Msg("Submitting stake transaction...")

	tx, err := c.submitter.Stake(ctx, call)
	if err != nil {
		log.Error().Err(err).Msg("Failed to submit stake transaction")
		return err
	}

	return confirm(ctx, c, "stake", tx, wait)
}
