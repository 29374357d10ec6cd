package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sensorsDir string

var rootCmd = &cobra.Command{
	Use:   "sensorctl",
	Short: "sensorctl is the command-line interface for the build sensor.",
	Long:  `A CLI for validating sensor manifests, dry-running events against them and inspecting dispatch history.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&sensorsDir, "sensors-dir", "d", "", "Directory of sensor manifests")

	if err := viper.BindPFlag("SENSORS_DIR", rootCmd.PersistentFlags().Lookup("sensors-dir")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
	viper.SetDefault("SENSORS_DIR", "./sensors")
}

// initConfig reads in ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("SENSORCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
