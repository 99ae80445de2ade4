package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/katarogu/katarogu/internal/logging"
)

var (
	configPath string
	dataDir    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "katarogu",
	Short: "Katarogu: static catalog site pipeline",
	Long: `Katarogu fetches catalog records from the upstream listing API,
maintains the chunked record store, and compiles it into a static site.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "site.hcl", "Path to site configuration")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "data", "Record store directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
