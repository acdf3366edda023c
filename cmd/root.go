package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mmm",
	Short: "Trading platform backend",
	Long:  `Backend for the MMM trading platform: account registration, sign-in, email verification, session tokens and the trading-domain records behind them.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
