package cmd

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/sergev/wwvb/carrier"
	"github.com/sergev/wwvb/decoder"
	"github.com/sergev/wwvb/wwvb"
	"github.com/spf13/cobra"
)

var (
	simStart   string
	simMinutes int
	simLeap    bool
	simDST     int
	simDUT1    float64
	simJitter  int
	simNoise   float64
	simSeed    int64
	simOutput  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate a sample stream of the broadcast",
	Long: `Generate the sample stream a receiver would deliver for the given minutes
of the broadcast, in the text format accepted by the decode command.
Start time is UTC, formatted as 2006-01-02T15:04; default is the current minute.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		start, err := parseStart(simStart, time.Now())
		if err != nil {
			cobra.CheckErr(err)
		}
		if simDST < 0 || simDST > 3 {
			cobra.CheckErr(fmt.Errorf("invalid DST code %d (must be 0..3)", simDST))
		}
		t := wwvb.FromUTC(start, simLeap, wwvb.DSTCode(simDST), int(math.Round(simDUT1*10)))

		var out io.Writer = os.Stdout
		if simOutput != "" && simOutput != "-" {
			file, err := os.Create(simOutput)
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to create output file: %w", err))
			}
			defer file.Close()
			out = file

			// Stdout is free, show what is being sent.
			describeMinutes(os.Stdout, t, simMinutes)
		}

		opts := carrier.Options{
			Jitter: simJitter,
			Noise:  simNoise,
			Seed:   simSeed,
		}
		if err := simulate(out, t, simMinutes, opts); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to generate samples: %w", err))
		}
	},
}

// parseStart parses the start minute, defaulting to the minute of now.
func parseStart(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.UTC().Truncate(time.Minute), nil
	}
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time %q: %w", s, err)
	}
	return t, nil
}

// simulate writes n minutes of samples starting at t, one line per second.
func simulate(w io.Writer, t wwvb.Time, n int, opts carrier.Options) error {
	symbols, err := carrier.Minutes(t, n)
	if err != nil {
		return err
	}
	opts.TicksPerSecond = decoder.Subsec
	out := carrier.NewWriter(w, decoder.Subsec)
	for _, b := range carrier.Generate(symbols, opts) {
		if err := out.WriteSample(b); err != nil {
			return err
		}
	}
	return out.Flush()
}

// describeMinutes prints the UTC time and symbols of n minutes starting at t.
func describeMinutes(w io.Writer, t wwvb.Time, n int) {
	for i := 0; i < n; i++ {
		frame := wwvb.EncodeFrame(t)
		fmt.Fprintf(w, "%s  %s\n", t.ToUTC().Format("2006-01-02 15:04 UTC"), frame.String())
		t.AdvanceMinutes(1)
	}
}

func init() {
	simulateCmd.Flags().StringVar(&simStart, "start", "", "first minute, UTC")
	simulateCmd.Flags().IntVarP(&simMinutes, "minutes", "n", 3, "number of minutes")
	simulateCmd.Flags().BoolVar(&simLeap, "leap", false, "announce a leap second")
	simulateCmd.Flags().IntVar(&simDST, "dst", 0, "DST code: 0 standard, 1 ends, 2 begins, 3 daylight")
	simulateCmd.Flags().Float64Var(&simDUT1, "dut1", 0, "UT1-UTC in seconds, -0.9..0.9")
	simulateCmd.Flags().IntVar(&simJitter, "jitter", 0, "max pulse edge displacement, in samples")
	simulateCmd.Flags().Float64Var(&simNoise, "noise", 0, "probability of flipping a sample")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 1, "random seed")
	simulateCmd.Flags().StringVarP(&simOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(simulateCmd)
}
