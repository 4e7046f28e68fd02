// bdm_bench generates a synthetic order database (if needed), then runs the
// analytic query suite twice: once straight off disk and once through a
// buffer pool, and reports the speedup and I/O reduction.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Stravanni/bdm/core/buffer"
	"github.com/Stravanni/bdm/core/disk"
	"github.com/Stravanni/bdm/core/query"
	"github.com/Stravanni/bdm/internal/datagen"
	"github.com/Stravanni/bdm/pkg/config"
	"github.com/Stravanni/bdm/pkg/logger"
)

var (
	configPath = flag.String("config", "", "Optional YAML config file")
	dbPath     = flag.String("db", "", "Database file (overrides config)")
	numOrders  = flag.Int("orders", 100_000, "Orders to generate when the database file is missing")
	poolSize   = flag.Int("pool", 0, "Buffer pool size in frames (overrides config)")
	policyName = flag.String("policy", "", "Eviction policy: FIFO, LRU or CLOCK (overrides config)")
	seed       = flag.Int64("seed", 42, "Dataset generation seed")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.Disk.Path = *dbPath
	}
	if *poolSize > 0 {
		cfg.Pool.Size = *poolSize
	}
	if *policyName != "" {
		cfg.Pool.Policy = *policyName
	}

	zlogger, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zlogger.Sync()

	dm, err := disk.NewDiskManager(cfg.Disk.Path, zlogger)
	if err != nil {
		zlogger.Fatal("failed to open database", zap.Error(err))
	}

	numPages, err := dm.NumPages()
	if err != nil {
		zlogger.Fatal("failed to stat database", zap.Error(err))
	}
	if numPages == 0 {
		zlogger.Info("database empty, generating dataset",
			zap.Int("orders", *numOrders),
			zap.Int64("seed", *seed))
		orders := datagen.GenerateOrders(datagen.Config{NumOrders: *numOrders, Seed: *seed})
		numPages, err = datagen.WriteDatabase(dm, orders, zlogger)
		if err != nil {
			zlogger.Fatal("failed to write dataset", zap.Error(err))
		}
	}
	dm.ResetStats()

	policy, err := buffer.NewPolicy(cfg.Pool.Policy)
	if err != nil {
		zlogger.Fatal("bad eviction policy", zap.Error(err))
	}

	fmt.Printf("database: %s (%d pages)\n", cfg.Disk.Path, numPages)
	fmt.Printf("pool:     %d frames, %s\n\n", cfg.Pool.Size, policy.Name())

	naive := query.NewEngine(query.NewDiskSource(dm), numPages, zlogger)
	naiveTime, err := runSuite(naive)
	if err != nil {
		zlogger.Fatal("naive run failed", zap.Error(err))
	}
	naiveStats := dm.Stats()
	dm.ResetStats()

	pool := buffer.NewBufferPool(dm, cfg.Pool.Size, policy, zlogger)
	buffered := query.NewEngine(pool, numPages, zlogger)
	bufferedTime, err := runSuite(buffered)
	if err != nil {
		zlogger.Fatal("buffered run failed", zap.Error(err))
	}
	bufferedStats := dm.Stats()
	poolStats := pool.Stats()

	fmt.Printf("naive:    %v, %d disk reads (%.1f MB/s)\n",
		naiveTime.Round(time.Millisecond), naiveStats.Reads, naiveStats.ReadThroughputMBps())
	fmt.Printf("buffered: %v, %d disk reads (hit rate %.1f%%)\n",
		bufferedTime.Round(time.Millisecond), bufferedStats.Reads, poolStats.HitRate())
	if bufferedTime > 0 {
		fmt.Printf("speedup:  %.2fx\n", float64(naiveTime)/float64(bufferedTime))
	}
	if naiveStats.Reads > 0 {
		reduction := 100 * float64(naiveStats.Reads-bufferedStats.Reads) / float64(naiveStats.Reads)
		fmt.Printf("I/O cut:  %.1f%%\n", reduction)
	}
}

// runSuite executes the four analytic queries back to back, the repeated
// full-scan pattern the pool is designed for.
func runSuite(e *query.Engine) (time.Duration, error) {
	start := time.Now()
	if _, err := e.MonthlyRevenue(); err != nil {
		return 0, fmt.Errorf("monthly revenue: %w", err)
	}
	if _, err := e.TopCustomers(10); err != nil {
		return 0, fmt.Errorf("top customers: %w", err)
	}
	if _, err := e.TopProducts(10); err != nil {
		return 0, fmt.Errorf("top products: %w", err)
	}
	if _, err := e.RegionalSales(); err != nil {
		return 0, fmt.Errorf("regional sales: %w", err)
	}
	return time.Since(start), nil
}
