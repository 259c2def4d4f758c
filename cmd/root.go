package cmd

import (
	"fmt"

	"github.com/sergev/wwvb/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wwvb",
	Short: "A CLI program which decodes the WWVB time signal",
	Long: `The wwvb tool decodes the 60 kHz WWVB time broadcast from a stream of
carrier samples, taken from a file or from a receiver attached via USB.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		err := config.Initialize()
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to initialize config: %w", err))
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
