// Package datagen produces the synthetic order dataset the benchmarks run
// against: repeat customers, an 80/20 product split, holiday-season date
// skew and a weighted regional distribution.
package datagen

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/Stravanni/bdm/core/disk"
	"github.com/Stravanni/bdm/core/page"
	"github.com/Stravanni/bdm/core/record"
)

// Config shapes the generated dataset. Zero values select the defaults.
type Config struct {
	NumOrders int
	Seed      int64
}

const (
	defaultNumOrders = 100_000

	hotProducts  = 200  // products 1..200 take 80% of orders
	coldProducts = 1800 // products 201..2000

	frequentCustomerRatio = 0.3
	hotProductRatio       = 0.8

	dateSpanDays = 730 // two years of history
)

// GenerateOrders builds the synthetic order stream. The same seed yields the
// same orders. Order ids are assigned sequentially starting at 1; id 0 is
// the empty-slot marker and never generated.
func GenerateOrders(cfg Config) []record.Order {
	if cfg.NumOrders <= 0 {
		cfg.NumOrders = defaultNumOrders
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	// Customer pools scale with dataset size: a small frequent pool takes
	// 30% of the orders, a larger occasional pool the rest.
	frequentCustomers := cfg.NumOrders/50 + 1
	occasionalCustomers := cfg.NumOrders/5 + 1

	quantityWeights := []int{50, 25, 15, 7, 3}
	regionWeights := []int{20, 15, 12, 10, 8, 8, 7, 6, 7, 7}

	orders := make([]record.Order, 0, cfg.NumOrders)
	for i := 1; i <= cfg.NumOrders; i++ {
		var customer uint32
		if rng.Float64() < frequentCustomerRatio {
			customer = uint32(rng.Intn(frequentCustomers) + 1)
		} else {
			customer = uint32(frequentCustomers + rng.Intn(occasionalCustomers-frequentCustomers) + 1)
		}

		var product, priceCents uint32
		if rng.Float64() < hotProductRatio {
			product = uint32(rng.Intn(hotProducts) + 1)
			priceCents = uint32(5_000 + rng.Intn(25_001)) // $50 - $300
		} else {
			product = uint32(hotProducts + rng.Intn(coldProducts) + 1)
			priceCents = uint32(1_000 + rng.Intn(9_001)) // $10 - $100
		}

		quantity := uint32(weightedChoice(rng, quantityWeights) + 1)

		date := uint32(rng.Intn(dateSpanDays + 1))
		if rng.Float64() < 0.3 {
			// Holiday skew: re-roll 30% of dates into the two year-end windows.
			if rng.Intn(2) == 0 {
				date = uint32(330 + rng.Intn(36))
			} else {
				date = uint32(695 + rng.Intn(36))
			}
		}

		region := uint32(weightedChoice(rng, regionWeights) + 1)

		orders = append(orders, record.Order{
			OrderID:    uint32(i),
			CustomerID: customer,
			ProductID:  product,
			Quantity:   quantity,
			PriceCents: priceCents,
			OrderDate:  date,
			Region:     region,
		})
	}
	return orders
}

// weightedChoice picks an index with probability proportional to its weight.
func weightedChoice(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	pick := rng.Intn(total)
	for i, w := range weights {
		pick -= w
		if pick < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// WriteDatabase packs the orders into pages and writes them through the disk
// manager, returning the number of pages written. A final partial page is
// written too.
func WriteDatabase(dm *disk.DiskManager, orders []record.Order, logger *zap.Logger) (int64, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	current := page.New(0)
	var written int64
	for _, o := range orders {
		if !current.AddOrder(o) {
			if err := dm.WritePage(current); err != nil {
				return written, fmt.Errorf("writing page %d: %w", current.ID, err)
			}
			written++
			current = page.New(page.PageID(written))
			current.AddOrder(o)
		}
	}
	if len(current.Orders) > 0 {
		if err := dm.WritePage(current); err != nil {
			return written, fmt.Errorf("writing page %d: %w", current.ID, err)
		}
		written++
	}
	logger.Info("dataset written",
		zap.Int("orders", len(orders)),
		zap.Int64("pages", written))
	return written, nil
}
