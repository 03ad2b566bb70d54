package cli

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/theblitlabs/parity-stake/internal/utils/contextutil"
	"github.com/theblitlabs/parity-stake/internal/utils/errorutil"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

const waitFlag = "wait"

// confirm optionally waits for tx to be mined and reports the outcome.
func confirm(ctx context.Context, c *chain, action string, tx *types.Transaction, wait bool) error {
	log := logger.WithComponent(action)

	log.Info().
		Str("tx_hash", tx.Hash().Hex()).
		Str("wallet", c.client.Address().Hex()).
		Msg("Transaction submitted")

	if !wait {
		return nil
	}

	log.Info().Str("tx_hash", tx.Hash().Hex()).Msg("Waiting for confirmation...")

	waitCtx, cancel := contextutil.WithLongTimeout(ctx)
	defer cancel()

	receipt, err := c.client.WaitMined(waitCtx, tx)
	if err != nil {
		errorutil.HandleContextError(log, waitCtx, err,
			"Timed out waiting for confirmation - please check the transaction status",
			"Failed to confirm transaction - please check the transaction status")
		return err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		log.Error().
			Str("tx_hash", tx.Hash().Hex()).
			Uint64("block_number", receipt.BlockNumber.Uint64()).
			Msg("Transaction reverted")
		return fmt.Errorf("%s transaction %s reverted", action, tx.Hash().Hex())
	}

	log.Info().
		Str("tx_hash", tx.Hash().Hex()).
		Uint64("block_number", receipt.BlockNumber.Uint64()).
		Uint64("gas_used", receipt.GasUsed).
		Msg("Transaction confirmed successfully")

	return nil
}
