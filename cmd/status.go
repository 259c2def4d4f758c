package cmd

import (
	"fmt"

	"github.com/sergev/wwvb/config"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the status of the receiver",
	Long:  "Find the WWVB receiver attached via USB and print its details and the configuration.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rx, err := openReceiver("")
		if err != nil {
			fmt.Printf("Receiver: %v\n", err)
		} else {
			rx.PrintStatus()
			rx.Close()
		}

		fmt.Printf("\nConfiguration script: %s\n", config.Path)
		fmt.Printf("Time zone: %s, daylight saving %s\n", zoneDescription(config.ZoneOffset), onOff(config.ObserveDST))
		fmt.Printf("Health threshold: %d%%\n", config.HealthPercent)
		if config.Serial.Port != "" {
			fmt.Printf("Serial port: %s at %d baud\n", config.Serial.Port, config.Serial.Baud)
		} else {
			fmt.Printf("Serial receiver: VID=0x%04X PID=0x%04X at %d baud\n",
				config.Serial.VendorID, config.Serial.ProductID, config.Serial.Baud)
		}
		if config.USB.Enabled() {
			fmt.Printf("USB receiver: VID=0x%04X PID=0x%04X interface %d endpoint 0x%02X\n",
				config.USB.VendorID, config.USB.ProductID, config.USB.Interface, config.USB.Endpoint)
		}
		if config.MetricsAddr != "" {
			fmt.Printf("Metrics: %s\n", config.MetricsAddr)
		}
		if config.MQTT.Enabled() {
			fmt.Printf("MQTT: %s topic %s\n", config.MQTT.Broker, config.MQTT.Topic)
		}
	},
}

// zoneDescription names a zone given in hours west of UTC.
func zoneDescription(zoneOffset int) string {
	if zoneOffset == 0 {
		return "UTC"
	}
	return fmt.Sprintf("UTC%+d", -zoneOffset)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
