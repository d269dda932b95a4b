//go:build ignore

// Benchmark diff tool for catching parser and indexer slowdowns before
// they land:
//
//	go test -bench=. -benchmem ./internal/parser/ > current.txt
//	go run scripts/bench-compare.go current.txt baseline.txt
//
// A benchmark counts as regressed when either ns/op or allocs/op grows
// by more than the threshold (20% unless -threshold says otherwise).
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultThreshold = 0.20 // max tolerated slowdown
	improveThreshold = 0.10 // highlight speedups past this
)

const (
	statusOK         = "OK"
	statusRegression = "REGRESSION"
	statusImproved   = "IMPROVED"
	statusNew        = "NEW"
	statusMissing    = "MISSING"
)

// benchmark holds one parsed `go test -bench` output line.
type benchmark struct {
	Name        string  `json:"name"`
	Iterations  int     `json:"iterations"`
	NsPerOp     float64 `json:"ns_per_op"`
	BytesPerOp  int     `json:"bytes_per_op"`
	AllocsPerOp int     `json:"allocs_per_op"`
}

// comparison pairs a benchmark with its baseline measurement.
type comparison struct {
	Name           string  `json:"name"`
	Current        float64 `json:"current_ns_per_op"`
	Baseline       float64 `json:"baseline_ns_per_op"`
	DeltaPct       float64 `json:"delta_percent"`
	AllocsDeltaPct float64 `json:"allocs_delta_percent"`
	IsRegressed    bool    `json:"is_regressed"`
	IsImproved     bool    `json:"is_improved"`
	Status         string  `json:"status"`
}

// report is the full outcome of one comparison run.
type report struct {
	TotalBenchmarks  int           `json:"total_benchmarks"`
	Regressions      int           `json:"regressions"`
	Improvements     int           `json:"improvements"`
	Unchanged        int           `json:"unchanged"`
	NewBenchmarks    int           `json:"new_benchmarks"`
	MissingBaseline  int           `json:"missing_baseline"`
	Results          []*comparison `json:"results"`
	RegressionFailed bool          `json:"regression_failed"`
}

var (
	jsonOut       = flag.Bool("json", false, "Output results as JSON")
	regressLimit  = flag.Float64("threshold", defaultThreshold, "Regression threshold (0.0-1.0)")
	showAll       = flag.Bool("verbose", false, "Show all benchmark comparisons")
	failOnRegress = flag.Bool("fail", true, "Exit with code 1 on regression")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <current.txt> <baseline.txt>\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Compares benchmark results and detects regressions.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}

	current := loadBenchmarks(flag.Arg(0))
	baseline := loadBenchmarks(flag.Arg(1))

	rep := diff(current, baseline, *regressLimit)

	if *jsonOut {
		writeJSON(rep)
	} else {
		writeText(rep)
	}

	if *failOnRegress && rep.RegressionFailed {
		os.Exit(1)
	}
}

func loadBenchmarks(path string) map[string]*benchmark {
	file, err := os.Open(path)
	if err != nil {
		fatalf("reading %s: %v", path, err)
	}
	defer file.Close()

	out := make(map[string]*benchmark)
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		if b := parseLine(sc.Text()); b != nil {
			out[b.Name] = b
		}
	}
	if err := sc.Err(); err != nil {
		fatalf("reading %s: %v", path, err)
	}
	return out
}

// parseLine picks benchmark rows out of `go test -bench` output by
// their unit suffixes. Rows without an ns/op column (headers, PASS
// lines, goos/goarch banners) are skipped.
func parseLine(line string) *benchmark {
	fields := strings.Fields(line)
	if len(fields) < 4 || !strings.HasPrefix(fields[0], "Benchmark") {
		return nil
	}
	iters, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil
	}

	b := &benchmark{Name: fields[0], Iterations: iters}
	sawTime := false
	for i := 2; i+1 < len(fields); i += 2 {
		switch fields[i+1] {
		case "ns/op":
			b.NsPerOp, _ = strconv.ParseFloat(fields[i], 64)
			sawTime = true
		case "B/op":
			b.BytesPerOp, _ = strconv.Atoi(fields[i])
		case "allocs/op":
			b.AllocsPerOp, _ = strconv.Atoi(fields[i])
		}
	}
	if !sawTime {
		return nil
	}
	return b
}

// diff measures every current benchmark against its baseline. Either a
// time or an allocation increase past the limit fails the run.
func diff(current, baseline map[string]*benchmark, limit float64) *report {
	rep := &report{Results: []*comparison{}}

	for _, name := range sortedKeys(current) {
		curr := current[name]
		rep.TotalBenchmarks++

		base, ok := baseline[name]
		if !ok {
			rep.NewBenchmarks++
			if *showAll {
				rep.Results = append(rep.Results, &comparison{
					Name: name, Current: curr.NsPerOp, Status: statusNew,
				})
			}
			continue
		}

		c := &comparison{
			Name:           name,
			Current:        curr.NsPerOp,
			Baseline:       base.NsPerOp,
			DeltaPct:       relDelta(curr.NsPerOp, base.NsPerOp) * 100,
			AllocsDeltaPct: relDelta(float64(curr.AllocsPerOp), float64(base.AllocsPerOp)) * 100,
		}

		switch {
		case c.DeltaPct > limit*100 || c.AllocsDeltaPct > limit*100:
			c.IsRegressed = true
			c.Status = statusRegression
			rep.Regressions++
			rep.RegressionFailed = true
		case c.DeltaPct < -improveThreshold*100:
			c.IsImproved = true
			c.Status = statusImproved
			rep.Improvements++
		default:
			c.Status = statusOK
			rep.Unchanged++
		}

		if c.IsRegressed || c.IsImproved || *showAll {
			rep.Results = append(rep.Results, c)
		}
	}

	// Benchmarks only the baseline knows about were probably deleted.
	for _, name := range sortedKeys(baseline) {
		if _, ok := current[name]; ok {
			continue
		}
		rep.MissingBaseline++
		if *showAll {
			rep.Results = append(rep.Results, &comparison{
				Name: name, Baseline: baseline[name].NsPerOp, Status: statusMissing,
			})
		}
	}

	return rep
}

// relDelta returns (curr-base)/base, or 0 when there is no baseline.
// Positive means slower or more allocations.
func relDelta(curr, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return (curr - base) / base
}

func sortedKeys(m map[string]*benchmark) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeText(rep *report) {
	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)

	fmt.Println(rule)
	fmt.Println("BENCHMARK COMPARISON REPORT")
	fmt.Println(rule)
	fmt.Printf("\nTotal Benchmarks: %d\n", rep.TotalBenchmarks)
	fmt.Printf("Regressions:      %d (> %.0f%% slower)\n", rep.Regressions, *regressLimit*100)
	fmt.Printf("Improvements:     %d (> %.0f%% faster)\n", rep.Improvements, improveThreshold*100)
	fmt.Printf("Unchanged:        %d\n", rep.Unchanged)
	fmt.Printf("New Benchmarks:   %d\n", rep.NewBenchmarks)
	fmt.Printf("Missing:          %d\n\n", rep.MissingBaseline)

	if len(rep.Results) > 0 {
		fmt.Println(thin)
		fmt.Printf("%-50s %12s %12s %10s\n", "BENCHMARK", "CURRENT", "BASELINE", "DELTA")
		fmt.Println(thin)
		for _, c := range rep.Results {
			printRow(c)
		}
		fmt.Println(thin)
	}

	fmt.Println()
	if rep.RegressionFailed {
		fmt.Println("❌ FAILED: Performance regression detected!")
		fmt.Printf("   %d benchmark(s) regressed by more than %.0f%%\n", rep.Regressions, *regressLimit*100)
	} else {
		fmt.Println("✅ PASSED: No significant regressions detected.")
	}
	fmt.Println()
}

func printRow(c *comparison) {
	badge := map[string]string{
		statusRegression: "❌ REGRESS",
		statusImproved:   "✅ FASTER",
		statusNew:        "🆕 NEW",
		statusMissing:    "⚠️ MISSING",
	}[c.Status]
	if badge == "" {
		badge = "   OK"
	}

	name := c.Name
	if len(name) > 50 {
		name = name[:47] + "..."
	}

	if c.Baseline > 0 {
		fmt.Printf("%-50s %10.0f ns %10.0f ns %+8.1f%% %s\n", name, c.Current, c.Baseline, c.DeltaPct, badge)
		return
	}
	fmt.Printf("%-50s %10.0f ns %12s %10s %s\n", name, c.Current, "-", "-", badge)
}

func writeJSON(rep *report) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		fatalf("encoding JSON: %v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
