package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/theblitlabs/parity-stake/internal/utils/cliutil"
	"github.com/theblitlabs/parity-stake/internal/utils/configutil"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

func NewClaimCommand() *cobra.Command {
	log := logger.WithComponent("claim")

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "claim",
		Short: "Claim pending staking rewards",
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
			return executeClaim(cmd.Context(), wait)
		},
	}, log)
}

func executeClaim(ctx context.Context, wait bool) error {
	log := logger.WithComponent("claim")
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

	tx, err := c.submitter.ClaimRewards(ctx, c.signerSession())
	if err != nil {
		log.Error().Err(err).Msg("Failed to submit claim transaction")
		return err
	}

	return confirm(ctx, c, "claim", tx, wait)
}
