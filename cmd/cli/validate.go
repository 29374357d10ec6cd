package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/climateengine/build-sensor/internal/sensor"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Validates sensor manifests",
	Long:  `Validates the given manifest files, or every manifest in the sensors directory when no file is given.`,
	RunE: func(_ *cobra.Command, args []string) error {
		sensors, err := loadSensors(args)
		if err != nil {
			errorColor.Fprintf(os.Stderr, "invalid: %v\n", err)
			return err
		}
		for _, s := range sensors {
			fmt.Printf("%s %s  %s\n", mark(true), s.Name(), dimColor.Sprint(s.File()))
		}
		successColor.Printf("%d sensor(s) valid\n", len(sensors))
		return nil
	},
}

// loadSensors loads the named files, falling back to the configured
// sensors directory.
func loadSensors(files []string) ([]*sensor.Sensor, error) {
	if len(files) == 0 {
		return sensor.LoadDir(viper.GetString("SENSORS_DIR"))
	}
	var all []*sensor.Sensor
	for _, f := range files {
		sensors, err := sensor.LoadFile(f)
		if err != nil {
			return nil, err
		}
		all = append(all, sensors...)
	}
	return all, nil
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.AddCommand(validateCmd)
}
