package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/theblitlabs/parity-stake/internal/config"
	"github.com/theblitlabs/parity-stake/internal/utils/configutil"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

var (
	logMode    string
	configPath string
)

// NewRootCommand assembles the parity-stake command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "parity-stake",
		Short:        "Parity staking pool client",
		Long:         `Stake tokens, claim rewards and unstake from a staking pool contract, from the terminal or a local web page`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch logMode {
			case "debug", "pretty", "info", "prod", "test":
				logger.InitWithMode(logger.LogMode(logMode))
			default:
				logger.InitWithMode(logger.LogModePretty)
			}
			configutil.SetConfigPath(configPath)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logMode, "log", "pretty", "Log mode: debug, pretty, info, prod, test")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to the config file")

	rootCmd.AddCommand(
		NewServeCommand(),
		NewAuthCommand(),
		NewBalanceCommand(),
		NewStakeCommand(),
		NewClaimCommand(),
		NewUnstakeCommand(),
	)

	return rootCmd
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
