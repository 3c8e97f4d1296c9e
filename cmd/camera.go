package cmd

import (
	"fmt"

	"github.com/kozaktomas/face-console/internal/config"
	"github.com/spf13/cobra"
)

var cameraCmd = &cobra.Command{
	Use:   "camera",
	Short: "Start or stop the appliance camera",
}

var cameraStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the camera",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCamera(cmd, true)
	},
}

var cameraStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the camera",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCamera(cmd, false)
	},
}

func init() {
	rootCmd.AddCommand(cameraCmd)
	cameraCmd.AddCommand(cameraStartCmd)
	cameraCmd.AddCommand(cameraStopCmd)
}

func runCamera(cmd *cobra.Command, start bool) error {
	cfg := config.Load()
	client, err := newAppliance(cfg)
	if err != nil {
		return err
	}

	if start {
		if err := client.StartCamera(cmd.Context()); err != nil {
			return fmt.Errorf("failed to start camera: %w", err)
		}
		fmt.Println("Camera started.")
		return nil
	}

	if err := client.StopCamera(cmd.Context()); err != nil {
		return fmt.Errorf("failed to stop camera: %w", err)
	}
	fmt.Println("Camera stopped.")
	return nil
}
