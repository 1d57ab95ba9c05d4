package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sbinet/npyio"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/stratoseis/dasio/pkg/codec"
	"github.com/stratoseis/dasio/pkg/config"
	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/dastime"
	"github.com/stratoseis/dasio/pkg/logger"
	"github.com/stratoseis/dasio/pkg/metrics"
	"github.com/stratoseis/dasio/pkg/performance"
	"github.com/stratoseis/dasio/pkg/reader"
	"github.com/stratoseis/dasio/pkg/topology"

	// Import all format readers to register them
	_ "github.com/stratoseis/dasio/pkg/reader/formats"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var (
		configFile    string
		logLevel      string
		metricsListen string
		cfg           *config.Config
	)

	root := &cobra.Command{
		Use:   "dasio",
		Short: "dasio - distributed acoustic sensing file toolkit",
		Long: `dasio reads DAS acquisition files in the vendor container formats
(NumPy serialized arrays, pickled maps, HDF5 layouts, TDMS waveforms and
SEG-Y trace lists) and normalizes them into one canonical section: a
channel-major sample matrix plus consistent metadata.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadFile(configFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if metricsListen != "" {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Listen = metricsListen
			}
			if err := logger.Init(logger.Config{
				Level:       cfg.Logging.Level,
				Encoding:    cfg.Logging.Encoding,
				Development: cfg.Logging.Development,
			}); err != nil {
				return err
			}
			for alias, tag := range cfg.Read.Aliases {
				if err := reader.AddAlias(alias, tag); err != nil {
					return err
				}
			}
			if cfg.Metrics.Enabled {
				go serveMetrics(cfg.Metrics.Listen)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to YAML configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&metricsListen, "metrics-listen", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dasio v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	// Formats command
	root.AddCommand(&cobra.Command{
		Use:   "formats",
		Short: "List registered format tags and aliases",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Registered formats:")
			for _, tag := range reader.List() {
				fmt.Printf("  - %s\n", tag)
			}
			aliases := reader.Aliases()
			names := make([]string, 0, len(aliases))
			for alias := range aliases {
				names = append(names, alias)
			}
			sort.Strings(names)
			fmt.Println("\nAliases:")
			for _, alias := range names {
				fmt.Printf("  - %s -> %s\n", alias, aliases[alias])
			}
		},
	})

	// Inspect command
	var inspectFormat string
	var inspectJSON bool
	inspectCmd := &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Read metadata without materializing samples",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectFiles(args, inspectFormat, inspectJSON)
		},
	}
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "", "Explicit format tag, overriding suffix resolution")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Emit JSON instead of text")
	root.AddCommand(inspectCmd)

	// Read command
	var (
		readFormat   string
		readGroup    string
		readOut      string
		ch1, ch2     int
		metadataOnly bool
		readStats    bool
	)
	readCmd := &cobra.Command{
		Use:   "read <file>",
		Short: "Read a file into the canonical section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := reader.Options{
				Format:       readFormat,
				Ch1:          windowBound(ch1),
				Ch2:          windowBound(ch2),
				MetadataOnly: metadataOnly || cfg.Read.MetadataOnly,
			}
			if readGroup != "" {
				opts.Extra = map[string]interface{}{"group": readGroup}
			}
			return readFile(args[0], opts, readOut, readStats)
		},
	}
	readCmd.Flags().StringVarP(&readFormat, "format", "f", "", "Explicit format tag, overriding suffix resolution")
	readCmd.Flags().IntVar(&ch1, "ch1", -1, "First channel of the window (absolute, inclusive)")
	readCmd.Flags().IntVar(&ch2, "ch2", -1, "Channel past the window end (absolute, exclusive)")
	readCmd.Flags().BoolVar(&metadataOnly, "metadata-only", false, "Skip sample materialization, return a zero-filled stub")
	readCmd.Flags().StringVar(&readGroup, "group", "", "Measurement group for waveform containers holding several")
	readCmd.Flags().StringVarP(&readOut, "out", "o", "", "Export the canonical matrix as a serialized array (.npy, codec suffixes honored)")
	readCmd.Flags().BoolVar(&readStats, "stats", false, "Print throughput and resource statistics")
	root.AddCommand(readCmd)

	// Topology command
	root.AddCommand(&cobra.Command{
		Use:   "topology <file>",
		Short: "Classify a deployment descriptor document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classifyDeployment(args[0])
		},
	})

	// Bench command
	var benchCount int
	var benchFormat string
	benchCmd := &cobra.Command{
		Use:   "bench <file>",
		Short: "Read a file repeatedly and report throughput",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return benchFile(args[0], benchFormat, benchCount)
		},
	}
	benchCmd.Flags().IntVarP(&benchCount, "count", "n", 10, "Number of reads")
	benchCmd.Flags().StringVarP(&benchFormat, "format", "f", "", "Explicit format tag, overriding suffix resolution")
	root.AddCommand(benchCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// inspectResult is the JSON shape of one inspected file.
type inspectResult struct {
	Source      string                `json:"source"`
	SourceType  string                `json:"source_type"`
	Channels    int                   `json:"channels"`
	Samples     int                   `json:"samples"`
	Meta        das.CanonicalMetadata `json:"meta"`
	Diagnostics []das.Diagnostic      `json:"diagnostics,omitempty"`
}

func inspectFiles(paths []string, format string, asJSON bool) error {
	var results []inspectResult
	var firstErr error

	for _, path := range paths {
		sec, diags, err := reader.Read(path, reader.Options{
			Format:       format,
			MetadataOnly: true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if asJSON {
			results = append(results, inspectResult{
				Source:      sec.Source,
				SourceType:  sec.SourceType,
				Channels:    sec.Channels(),
				Samples:     sec.Samples(),
				Meta:        sec.Meta,
				Diagnostics: diags,
			})
			continue
		}
		printSection(sec, diags)
	}

	if asJSON && len(results) > 0 {
		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return firstErr
}

func readFile(path string, opts reader.Options, out string, stats bool) error {
	tracker := performance.NewTracker()

	start := time.Now()
	sec, diags, err := reader.Read(path, opts)
	if err != nil {
		return err
	}
	tracker.Record(time.Since(start), sectionBytes(sec), nil)

	printSection(sec, diags)

	if out != "" {
		if err := exportMatrix(out, sec.Data); err != nil {
			return err
		}
		fmt.Printf("  exported to %s\n", out)
	}
	if stats {
		fmt.Println()
		fmt.Println(tracker.Finish().String())
	}
	return nil
}

func classifyDeployment(path string) error {
	dep, err := topology.Read(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s (%d section(s))\n", path, dep.Case, len(dep.Sections))
	for i, sec := range dep.Sections {
		fmt.Printf("  [%d] channels %d, rate %s, spacing %s, gauge %s\n",
			i, sec.Channels(),
			fmtOpt(sec.Meta.SamplingRate, "Hz"),
			fmtOpt(sec.Meta.ChannelSpacing, "m"),
			fmtOpt(sec.Meta.GaugeLength, "m"))
	}
	return nil
}

func benchFile(path, format string, count int) error {
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	opts := reader.Options{Format: format}
	tracker := performance.NewTracker()
	var samples *metrics.ThroughputTracker

	for i := 0; i < count; i++ {
		start := time.Now()
		sec, _, err := reader.Read(path, opts)
		if err != nil {
			return err
		}
		if samples == nil {
			samples = metrics.NewThroughputTracker(sec.SourceType)
		}
		samples.Increment(int64(sec.Channels() * sec.Samples()))
		tracker.Record(time.Since(start), sectionBytes(sec), nil)
	}

	rate := samples.GetAndReset()
	logger.Info("bench complete",
		zap.String("path", path),
		zap.Int("count", count),
		zap.Float64("samples_per_sec", rate))
	fmt.Println(tracker.Finish().String())
	fmt.Printf("decode throughput:  %.0f samples/s\n", rate)
	return nil
}

// exportMatrix writes the canonical matrix as a serialized array. A codec
// suffix on the target name wraps the stream with that encoder.
func exportMatrix(path string, m *das.Matrix) (err error) {
	if m == nil || m.Channels() == 0 || m.Samples() == 0 {
		return fmt.Errorf("empty matrix, nothing to export")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if _, alg := codec.TrimSuffix(path); alg != codec.None {
		cw, cerr := codec.NewWriter(alg, f, codec.Default)
		if cerr != nil {
			return cerr
		}
		defer func() {
			if cerr := cw.Close(); err == nil {
				err = cerr
			}
		}()
		w = cw
	}

	dense := mat.NewDense(m.Channels(), m.Samples(), m.Floats())
	if err := npyio.Write(w, dense); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func printSection(sec *das.Section, diags []das.Diagnostic) {
	fmt.Printf("%s  (%s)\n", sec.Source, sec.SourceType)
	fmt.Printf("  channels:   %d (start %d)\n", sec.Channels(), sec.Meta.StartChannel)
	fmt.Printf("  samples:    %d\n", sec.Samples())
	fmt.Printf("  rate:       %s\n", fmtOpt(sec.Meta.SamplingRate, "Hz"))
	fmt.Printf("  spacing:    %s\n", fmtOpt(sec.Meta.ChannelSpacing, "m"))
	fmt.Printf("  gauge:      %s\n", fmtOpt(sec.Meta.GaugeLength, "m"))
	fmt.Printf("  distance:   %s\n", fmtOpt(sec.Meta.StartDistance, "m"))
	fmt.Printf("  start time: %s\n", fmtTime(sec.Meta.StartTime))
	if sec.Meta.DataType != "" {
		fmt.Printf("  data type:  %s\n", sec.Meta.DataType)
	}
	if d := sec.Duration(); d > 0 {
		fmt.Printf("  duration:   %v\n", d.Round(time.Millisecond))
	}
	for _, d := range diags {
		fmt.Printf("  ! %s\n", d)
	}
}

func fmtOpt(v *float64, unit string) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%g %s", *v, unit)
}

func fmtTime(t time.Time) string {
	if dastime.IsEpochZero(t) {
		return "unknown"
	}
	return t.Format(time.RFC3339Nano)
}

func sectionBytes(sec *das.Section) int64 {
	return int64(sec.Channels()) * int64(sec.Samples()) * 8
}

func windowBound(v int) *int {
	if v < 0 {
		return nil
	}
	return reader.Int(v)
}

func serveMetrics(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("serving metrics", zap.String("listen", listen))
	if err := http.ListenAndServe(listen, mux); err != nil {
		logger.Error("metrics endpoint failed", zap.Error(err))
	}
}
