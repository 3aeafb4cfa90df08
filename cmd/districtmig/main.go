// Command districtmig is the operator-facing CLI for the district
// migration pipeline: one subcommand per phase from the teacher's
// cmd/warren command-tree idiom, each reading a JSON request from
// stdin (or --request-file) and writing a JSON response to stdout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cuemby/districtmig/pkg/log"
)

// Version, Commit, and BuildTime are set via -ldflags at release build
// time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "districtmig",
	Short: "District tenant data migration pipeline",
	Long: "districtmig extracts, anonymizes, validates, and loads one district's " +
		"data across the ids/hcp1/hcp2/adb/sp stores, run phase by phase or end " +
		"to end via the run command.",
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"districtmig version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	viper.SetEnvPrefix("DISTRICTMIG")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-json", rootCmd.PersistentFlags().Lookup("log-json"))

	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newAnonymizeCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newLoadCmd())
	rootCmd.AddCommand(newRollbackCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newRunCmd())
}

func initLogging() {
	log.Init(log.Config{
		Level:      log.Level(viper.GetString("log-level")),
		JSONOutput: viper.GetBool("log-json"),
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
