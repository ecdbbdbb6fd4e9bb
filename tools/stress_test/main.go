// Command stress_test hammers the writer and reader with concurrent round
// trips of generated rows and reports latency figures.
package main

import (
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/VanDung-dev/parquet-core/engine"
	"github.com/VanDung-dev/parquet-core/schema"
	"github.com/VanDung-dev/parquet-core/value"
)

// StressTestConfig holds configuration for the stress test.
type StressTestConfig struct {
	Concurrency int
	Rows        int
	Duration    time.Duration
	Compression string
	ReportFile  string
}

// StressTestResult holds the results of a stress test.
type StressTestResult struct {
	RoundTrips    int64
	Failed        int64
	RowsWritten   int64
	BytesWritten  int64
	TotalDuration time.Duration
	AvgLatency    time.Duration
	MinLatency    time.Duration
	MaxLatency    time.Duration
	RoundTripsSec float64
}

type counters struct {
	trips, failed, rows, bytes, latency atomic.Int64
	min, max                            atomic.Int64
}

func (c *counters) observe(lat time.Duration) {
	l := int64(lat)
	c.latency.Add(l)
	for {
		old := c.min.Load()
		if l >= old || c.min.CompareAndSwap(old, l) {
			break
		}
	}
	for {
		old := c.max.Load()
		if l <= old || c.max.CompareAndSwap(old, l) {
			break
		}
	}
}

var stressSchema = func() *schema.Schema {
	s, err := schema.New(
		schema.Primitive("id", schema.Int64, false),
		schema.Primitive("score", schema.Float64, true),
		schema.Primitive("at", schema.TimestampMicros("UTC"), false),
		schema.Map("attrs", true,
			schema.Primitive("key", schema.String, false),
			schema.Primitive("value", schema.Decimal128(18, 4), true)),
	)
	if err != nil {
		panic(err)
	}
	return s
}()

func main() {
	config := parseFlags()
	if _, err := engine.ParseCompression(config.Compression); err != nil {
		log.Fatalf("invalid compression: %v", err)
	}

	fmt.Println("=== parquet-core round trip stress test ===")
	fmt.Printf("Concurrency: %d workers\n", config.Concurrency)
	fmt.Printf("Rows/file:   %d\n", config.Rows)
	fmt.Printf("Duration:    %v\n", config.Duration)
	fmt.Printf("Codec:       %s\n", config.Compression)
	fmt.Println()

	result := runStressTest(config)
	printResults(result)

	if config.ReportFile != "" {
		saveReport(config, result)
	}
}

func parseFlags() StressTestConfig {
	config := StressTestConfig{}

	pflag.IntVarP(&config.Concurrency, "concurrency", "c", 8, "number of concurrent workers")
	pflag.IntVarP(&config.Rows, "rows", "n", 10000, "rows per generated file")
	pflag.DurationVarP(&config.Duration, "duration", "d", 10*time.Second, "duration of test")
	pflag.StringVar(&config.Compression, "compression", "snappy", "codec[:level]")
	pflag.StringVarP(&config.ReportFile, "output", "o", "", "output report file (JSON)")
	pflag.Parse()

	return config
}

func runStressTest(config StressTestConfig) StressTestResult {
	var c counters
	c.min.Store(1<<63 - 1)
	deadline := time.Now().Add(config.Duration)
	startTime := time.Now()

	var g errgroup.Group
	for i := 0; i < config.Concurrency; i++ {
		rng := rand.New(rand.NewPCG(uint64(i), uint64(startTime.UnixNano())))
		g.Go(func() error {
			for time.Now().Before(deadline) {
				rows := generateRows(rng, config.Rows)
				start := time.Now()
				n, err := roundTrip(config, rows)
				c.trips.Add(1)
				if err != nil {
					c.failed.Add(1)
					log.Printf("round trip failed: %v", err)
					continue
				}
				c.observe(time.Since(start))
				c.rows.Add(int64(len(rows)))
				c.bytes.Add(n)
			}
			return nil
		})
	}
	_ = g.Wait()

	duration := time.Since(startTime)
	trips := c.trips.Load()
	ok := trips - c.failed.Load()
	var avg time.Duration
	if ok > 0 {
		avg = time.Duration(c.latency.Load() / ok)
	}
	minLat := c.min.Load()
	if ok == 0 {
		minLat = 0
	}
	return StressTestResult{
		RoundTrips:    trips,
		Failed:        c.failed.Load(),
		RowsWritten:   c.rows.Load(),
		BytesWritten:  c.bytes.Load(),
		TotalDuration: duration,
		AvgLatency:    avg,
		MinLatency:    time.Duration(minLat),
		MaxLatency:    time.Duration(c.max.Load()),
		RoundTripsSec: float64(trips) / duration.Seconds(),
	}
}

func generateRows(rng *rand.Rand, n int) [][]value.Value {
	rows := make([][]value.Value, n)
	for i := range rows {
		var score value.Value = value.Null{}
		if rng.IntN(4) != 0 {
			score = value.Float64(rng.NormFloat64())
		}
		attrs := make(value.Map, rng.IntN(4))
		for j := range attrs {
			attrs[j] = value.MapEntry{
				Key:   value.String(fmt.Sprintf("k%d", rng.IntN(8))),
				Value: value.NewDecimal128FromInt64(rng.Int64N(1e12)-5e11, 4),
			}
		}
		rows[i] = []value.Value{
			value.Int64(i),
			score,
			value.Timestamp{Epoch: rng.Int64N(1 << 50), Unit: value.Microsecond, TZ: "UTC"},
			attrs,
		}
	}
	return rows
}

// roundTrip writes rows to memory, reads them back and checks every row.
func roundTrip(config StressTestConfig, rows [][]value.Value) (int64, error) {
	props := engine.DefaultWriterProperties()
	props.Compression, _ = engine.ParseCompression(config.Compression)
	sink := &engine.BufferSink{}
	w, err := engine.NewWriterWithProperties(sink, stressSchema, props)
	if err != nil {
		return 0, err
	}
	if err := w.WriteRows(rows); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}

	r := engine.NewReader(engine.NewBytesSource(sink.Bytes()))
	defer r.Close()
	i := 0
	for row, err := range r.ReadRows().All() {
		if err != nil {
			return 0, err
		}
		if i >= len(rows) || !value.Equal(value.List(row), value.List(rows[i])) {
			return 0, errors.Newf("row %d differs after round trip", i)
		}
		i++
	}
	if i != len(rows) {
		return 0, errors.Newf("read %d rows, wrote %d", i, len(rows))
	}
	return w.BytesWritten(), nil
}

func printResults(result StressTestResult) {
	fmt.Println("=== Results ===")
	fmt.Printf("Duration:      %v\n", result.TotalDuration.Round(time.Millisecond))
	fmt.Printf("Round trips:   %d (%d failed)\n", result.RoundTrips, result.Failed)
	fmt.Printf("Rows:          %d\n", result.RowsWritten)
	fmt.Printf("Bytes written: %d\n", result.BytesWritten)
	fmt.Printf("Trips/sec:     %.2f\n", result.RoundTripsSec)
	fmt.Printf("Avg latency:   %v\n", result.AvgLatency.Round(time.Microsecond))
	fmt.Printf("Min latency:   %v\n", result.MinLatency.Round(time.Microsecond))
	fmt.Printf("Max latency:   %v\n", result.MaxLatency.Round(time.Microsecond))
}

func saveReport(config StressTestConfig, result StressTestResult) {
	report := map[string]any{
		"config":    config,
		"result":    result,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("failed to encode report: %v", err)
		return
	}
	if err := os.WriteFile(config.ReportFile, data, 0o644); err != nil {
		log.Printf("failed to write report: %v", err)
		return
	}
	fmt.Printf("\nReport saved to: %s\n", config.ReportFile)
}
