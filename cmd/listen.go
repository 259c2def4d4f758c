package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sergev/wwvb/carrier"
	"github.com/sergev/wwvb/clock"
	"github.com/sergev/wwvb/config"
	"github.com/sergev/wwvb/decoder"
	"github.com/sergev/wwvb/metrics"
	"github.com/sergev/wwvb/publish"
	"github.com/sergev/wwvb/receiver"
	"github.com/sergev/wwvb/serialrx"
	"github.com/spf13/cobra"
)

var (
	listenPort     string
	listenMetrics  string
	listenInterval time.Duration
	listenInvert   bool
	listenSymbols  bool
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Decode the signal from an attached receiver",
	Long: `Decode the signal from a receiver attached via USB and print the time
every minute, with periodic status lines in between.
Decoded minutes are optionally exported to Prometheus and published over MQTT.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rx, err := openReceiver(listenPort)
		if err != nil {
			cobra.CheckErr(err)
		}
		defer rx.Close()
		rx.PrintStatus()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = listen(ctx, rx)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("receiver failed: %w", err))
		}
	},
}

// openReceiver opens the serial port given by name or in the config file,
// or else searches for an attached receiver.
func openReceiver(name string) (receiver.Receiver, error) {
	if name == "" {
		name = config.Serial.Port
	}
	if name != "" {
		rx, err := serialrx.Open(name, config.Serial.Baud)
		if err != nil {
			return nil, err
		}
		return rx, nil
	}

	custom := config.Serial.VendorID != serialrx.VendorID || config.Serial.ProductID != serialrx.ProductID
	if custom && (config.Serial.VendorID != 0 || config.Serial.ProductID != 0) {
		receiver.Register(config.Serial.VendorID, config.Serial.ProductID, serialrx.NewClient)
	}
	rx, err := receiver.Find()
	if err != nil {
		return nil, fmt.Errorf("failed to find receiver: %w", err)
	}
	return rx, nil
}

// listen runs the clock on the receiver until ctx is done or the
// receiver fails.
func listen(ctx context.Context, rx receiver.Receiver) error {
	addr := config.MetricsAddr
	if listenMetrics != "" {
		addr = listenMetrics
	}
	var m *metrics.Metrics
	if addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		m = metrics.New(reg)
		go func() {
			if err := metrics.Serve(ctx, addr, reg); err != nil {
				log.Printf("Metrics: %v", err)
			}
		}()
	}

	var pub *publish.Publisher
	if config.MQTT.Enabled() {
		var err error
		pub, err = publish.New(config.MQTT)
		if err != nil {
			return err
		}
		defer pub.Close()
	}

	// The handler runs on the sampling goroutine; decoded minutes are
	// handed over without blocking.
	minutes := make(chan clock.Event, 16)
	c := clock.New(func(ev clock.Event) {
		if m != nil {
			m.Observe(ev)
		}
		if ev.Decoded {
			select {
			case minutes <- ev:
			default:
			}
		}
	})

	var src carrier.Source = rx
	if listenInvert {
		src = carrier.Inverted{Source: rx}
	}
	errc := make(chan error, 1)
	go func() {
		errc <- c.Run(ctx, src)
	}()

	ticker := time.NewTicker(listenInterval)
	defer ticker.Stop()

	var last clock.Event
	for {
		select {
		case <-ctx.Done():
			// Unblock a pending read.
			rx.Close()
			<-errc
			return nil

		case err := <-errc:
			return err

		case ev := <-minutes:
			last = ev
			printMinute(ev)
			if pub != nil && healthy(ev.Health) {
				payload := publish.NewPayload(ev, config.ZoneOffset, config.ObserveDST)
				if err := pub.Publish(payload); err != nil {
					log.Printf("MQTT: %v", err)
				}
			}

		case <-ticker.C:
			snap := c.Decoder().Snapshot()
			fmt.Println(statusLine(&snap, last))
			if listenSymbols {
				fmt.Println("  " + snap.SymbolString())
			}
		}
	}
}

func healthy(health int) bool {
	return health*100 >= config.HealthPercent*decoder.MaxHealth
}

func printMinute(ev clock.Event) {
	local := ev.Frame.ApplyZoneAndDST(config.ZoneOffset, config.ObserveDST)
	mark := ""
	if !healthy(ev.Health) {
		mark = " (unreliable)"
	}
	if ev.Mismatch {
		mark += " (mismatch)"
	}
	fmt.Printf("%s  %s %s  health %.1f%%%s\n",
		ev.Frame.ToUTC().Format("2006-01-02 15:04 UTC"),
		local.Format("15:04"), zoneOf(local),
		100*float64(ev.Health)/decoder.MaxHealth, mark)
}

// statusLine summarizes the decoder state.
func statusLine(snap *decoder.Snapshot, last clock.Event) string {
	s := fmt.Sprintf("samples %s symbols %s (last %s) health %.1f%%",
		humanize.Comma(int64(snap.Samples)),
		humanize.Comma(int64(snap.Symbols)),
		snap.LastSymbol(),
		100*float64(snap.Health)/decoder.MaxHealth)
	if last.Decoded {
		s += ", last minute " + humanize.Time(last.Frame.ToUTC())
	} else {
		s += ", no minute decoded yet"
	}
	return s
}

func zoneOf(t time.Time) string {
	name, _ := t.Zone()
	return name
}

func init() {
	listenCmd.Flags().StringVarP(&listenPort, "port", "p", "", "serial port of the receiver (default: search)")
	listenCmd.Flags().StringVar(&listenMetrics, "metrics", "", "address for the Prometheus endpoint, like :9110")
	listenCmd.Flags().DurationVar(&listenInterval, "interval", 10*time.Second, "status line interval")
	listenCmd.Flags().BoolVar(&listenInvert, "invert", false, "receiver output is high on full carrier")
	listenCmd.Flags().BoolVarP(&listenSymbols, "symbols", "s", false, "print the last minute of symbols with every status line")
	rootCmd.AddCommand(listenCmd)
}
