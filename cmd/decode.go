package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sergev/wwvb/carrier"
	"github.com/sergev/wwvb/clock"
	"github.com/sergev/wwvb/config"
	"github.com/sergev/wwvb/wwvb"
	"github.com/spf13/cobra"
)

var (
	decodeZone    int
	decodeNoDST   bool
	decodeInvert  bool
	decodeSymbols bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode [FILE]",
	Short: "Decode a recorded sample stream",
	Long: `Decode a recorded sample stream and print every minute found in it.
Samples are read from FILE, or from standard input when FILE is omitted or "-".
Each sample is one character: '_' for reduced carrier, '#' for full carrier,
50 samples per second. All other characters are ignored.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var in io.Reader = os.Stdin
		if len(args) > 0 && args[0] != "-" {
			file, err := os.Open(args[0])
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to open input file: %w", err))
			}
			defer file.Close()
			in = file
		}

		zone := config.ZoneOffset
		if cmd.Flags().Changed("zone") {
			zone = decodeZone
		}
		observeDST := config.ObserveDST && !decodeNoDST

		var src carrier.Source = carrier.NewReader(in)
		if decodeInvert {
			src = carrier.Inverted{Source: src}
		}
		err := decodeStream(cmd.Context(), os.Stdout, src, zone, observeDST, decodeSymbols)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to decode: %w", err))
		}
	},
}

// decodeStream runs the samples through a clock, printing each decoded
// minute as UTC, local time, and day of year.
func decodeStream(ctx context.Context, w io.Writer, src carrier.Source, zone int, observeDST, symbols bool) error {
	var line []byte
	c := clock.New(func(ev clock.Event) {
		if symbols {
			line = append(line, ev.Symbol.String()[0])
			if ev.Symbol == wwvb.Mark && len(line) > 1 && line[len(line)-2] == 'M' {
				fmt.Fprintf(w, "%s\n", line[:len(line)-1])
				line = line[len(line)-1:]
			}
		}
		if !ev.Decoded {
			return
		}
		m := ev.Frame
		u := m.ToUTC()
		fmt.Fprintf(w, "[%7.2f] %4d-%02d-%02d %2d:%02d %d %d\n", float64(ev.Sample)/50,
			u.Year(), int(u.Month()), u.Day(), u.Hour(), u.Minute(), b2i(m.LY), int(m.DST))
		local := m.ApplyZoneAndDST(zone, observeDST)
		fmt.Fprintf(w, "          %4d-%02d-%02d %2d:%02d %s\n",
			local.Year(), int(local.Month()), local.Day(), local.Hour(), local.Minute(), zoneOf(local))
		fmt.Fprintf(w, "          %4d-%03d   %2d:%02d\n", m.Year+2000, m.YDay, m.Hour, m.Minute)
	})

	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.Run(ctx, src); err != nil {
		return err
	}
	if symbols && len(line) > 0 {
		fmt.Fprintf(w, "%s\n", line)
	}

	stats := c.Stats()
	fmt.Fprintf(w, "Samples: %8d Symbols: %7d Minutes: %6d\n", stats.Samples, stats.Seconds, stats.Minutes)
	return nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func init() {
	decodeCmd.Flags().IntVarP(&decodeZone, "zone", "z", 0, "time zone in hours west of UTC (default from config)")
	decodeCmd.Flags().BoolVar(&decodeNoDST, "no-dst", false, "ignore daylight saving time")
	decodeCmd.Flags().BoolVar(&decodeInvert, "invert", false, "input is high on full carrier")
	decodeCmd.Flags().BoolVarP(&decodeSymbols, "symbols", "s", false, "print decoded symbols, one minute per line")
	rootCmd.AddCommand(decodeCmd)
}
