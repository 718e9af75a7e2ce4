// slbench runs insert/lookup workloads against the skip list and reports
// timing and structure statistics.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"skipmap/internal/benchconf"
	"skipmap/skiplist"
	"skipmap/workload"
)

func main() {
	var configPath string
	var dumpConfig string
	var keys int
	var ops int
	var seed int64

	flag.StringVar(&configPath, "config", "", "path to a YAML bench config (defaults are used when empty or missing)")
	flag.StringVar(&dumpConfig, "dumpconfig", "", "write the default config to this path and exit")
	flag.IntVar(&keys, "keys", 0, "override the number of distinct keys")
	flag.IntVar(&ops, "ops", 0, "override the number of mixed-phase operations")
	flag.Int64Var(&seed, "seed", 0, "override the generator seed")
	flag.Parse()

	if dumpConfig != "" {
		benchconf.GetDefault().Dump(dumpConfig)
		fmt.Printf("default config written to %s\n", dumpConfig)
		return
	}

	cfg, err := benchconf.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if keys > 0 {
		cfg.Keys = keys
	}
	if ops > 0 {
		cfg.Ops = ops
	}
	if seed != 0 {
		cfg.Seed = seed
	}

	fmt.Printf("distribution: %s, keys: %d, ops: %d, read_ratio: %.2f, runs: %d\n",
		cfg.Distribution, cfg.Keys, cfg.Ops, cfg.ReadRatio, cfg.Runs)
	fmt.Printf("entropy: %.6f bits\n", newGenerator(cfg, cfg.Seed).Entropy())

	value := bytes.Repeat([]byte{'v'}, cfg.ValueSize)
	keyFn := workload.Key
	if cfg.Distribution == "sequential" {
		keyFn = workload.SequentialKey
	}

	insertMs := make([]float64, 0, cfg.Runs)
	mixedMs := make([]float64, 0, cfg.Runs)

	var last *skiplist.SkipList
	for run := 0; run < cfg.Runs; run++ {
		if last != nil {
			last.Close()
		}
		runSeed := cfg.Seed + int64(run)
		list := newList(cfg, runSeed)
		gen := newGenerator(cfg, runSeed)
		opRng := rand.New(rand.NewSource(runSeed))

		start := time.Now()
		for rank := 0; rank < cfg.Keys; rank++ {
			if err := list.Insert(keyFn(rank), value); err != nil {
				log.Fatalf("insert phase: %v (arena_size too small for %d keys?)", err, cfg.Keys)
			}
		}
		insertMs = append(insertMs, toMs(time.Since(start)))

		start = time.Now()
		for i := 0; i < cfg.Ops; i++ {
			rank := gen.Next()
			if opRng.Float64() < cfg.ReadRatio {
				list.Get(keyFn(rank))
			} else if err := list.Insert(keyFn(rank), value); err != nil {
				log.Fatalf("mixed phase: %v", err)
			}
		}
		mixedMs = append(mixedMs, toMs(time.Since(start)))
		last = list
	}
	defer last.Close()

	printSummary(cfg, insertMs, mixedMs)
	printLevels(last)
	printSteps(cfg, last, keyFn)
	fmt.Printf("arena: %d of %d bytes used (%.1f%%)\n",
		last.Size(), last.Cap(), 100*float64(last.Size())/float64(last.Cap()))
}

func newList(cfg *benchconf.Config, seed int64) *skiplist.SkipList {
	arenaBytes := cfg.ArenaSizeBytes()
	if arenaBytes > math.MaxUint32 {
		arenaBytes = math.MaxUint32
	}
	opts := []skiplist.Option{
		skiplist.WithArenaSize(uint32(arenaBytes)),
		skiplist.WithSeed(seed),
	}
	if cfg.FullTowers {
		opts = append(opts, skiplist.WithFullTowers())
	}
	return skiplist.New(opts...)
}

func newGenerator(cfg *benchconf.Config, seed int64) workload.Generator {
	switch cfg.Distribution {
	case "uniform":
		return workload.NewUniform(cfg.Keys, seed)
	case "sequential":
		return workload.NewSequential(cfg.Keys)
	default:
		return workload.NewZipf(cfg.Keys, cfg.ZipfA, cfg.ZipfB, seed)
	}
}

func printSummary(cfg *benchconf.Config, insertMs, mixedMs []float64) {
	rows := [][]string{
		summaryRow("insert", cfg.Keys, insertMs),
		summaryRow("mixed", cfg.Ops, mixedMs),
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Phase", "Runs", "Avg(ms)", "Min(ms)", "Max(ms)", "Ops/s"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

func summaryRow(phase string, ops int, durations []float64) []string {
	avg := average(durations)
	thr := 0.0
	if avg > 0 {
		thr = float64(ops) / (avg / 1000.0)
	}
	return []string{
		phase,
		fmt.Sprintf("%d", len(durations)),
		fmt.Sprintf("%.3f", avg),
		fmt.Sprintf("%.3f", minOf(durations)),
		fmt.Sprintf("%.3f", maxOf(durations)),
		fmt.Sprintf("%.2f", thr),
	}
}

func printLevels(list *skiplist.SkipList) {
	counts := list.LevelCounts()
	n := list.Len()

	rows := make([][]string, 0, len(counts))
	expected := float64(n)
	for level := 0; level < len(counts); level++ {
		rows = append(rows, []string{
			fmt.Sprintf("%d", level),
			fmt.Sprintf("%d", counts[level]),
			fmt.Sprintf("%.1f", expected),
		})
		expected /= 2
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Level", "Nodes", "Expected"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

func printSteps(cfg *benchconf.Config, list *skiplist.SkipList, keyFn func(int) []byte) {
	sample := cfg.Keys
	if sample > 1000 {
		sample = 1000
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	total := 0
	for i := 0; i < sample; i++ {
		total += list.SearchSteps(keyFn(rng.Intn(cfg.Keys)))
	}
	fmt.Printf("avg search comparisons over %d sampled keys: %.2f (n=%d, log2(n)=%.2f)\n",
		sample, float64(total)/float64(sample), list.Len(), math.Log2(float64(list.Len())))
}

func toMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
