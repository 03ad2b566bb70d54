package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theblitlabs/parity-stake/internal/utils/cliutil"
	"github.com/theblitlabs/parity-stake/internal/utils/errorutil"
	"github.com/theblitlabs/parity-stake/pkg/keystore"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

func NewAuthCommand() *cobra.Command {
	log := logger.WithComponent("auth")

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "auth",
		Short: "Store the wallet private key used to sign staking transactions",
		Flags: map[string]cliutil.Flag{
			"private-key": {
				Type:        cliutil.FlagTypeString,
				Shorthand:   "k",
				Description: "Private key in hex format",
			},
			"remove": {
				Type:        cliutil.FlagTypeBool,
				Description: "Remove the stored private key",
			},
		},
		RunFunc: func(cmd *cobra.Command, args []string) error {
			remove, err := cmd.Flags().GetBool("remove")
			if err != nil {
				return err
			}
			if remove {
				return ExecuteLogout()
			}

			privateKey, err := cmd.Flags().GetString("private-key")
			if err != nil {
				return fmt.Errorf("failed to get private key flag: %w", err)
			}
			return ExecuteAuth(privateKey)
		},
	}, log)
}

func ExecuteAuth(privateKey string) error {
	log := logger.WithComponent("auth")

	if privateKey == "" {
		return fmt.Errorf("private key is required")
	}

	store, err := keystore.DefaultStore()
	if err != nil {
		return err
	}

	address, err := store.SavePrivateKey(privateKey)
	if err != nil {
		return errorutil.WrapError(err, "failed to save private key")
	}

	log.Info().
		Str("address", address.Hex()).
		Str("keystore", store.Path()).
		Msg("Wallet authenticated successfully")

	return nil
}

func ExecuteLogout() error {
	log := logger.WithComponent("auth")

	store, err := keystore.DefaultStore()
	if err != nil {
		return err
	}
	if err := store.Remove(); err != nil {
		return err
	}

	log.Info().Str("keystore", store.Path()).Msg("Stored private key removed")
	return nil
}
