package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/farmgate/farmgate/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
)

// recordCounter is satisfied by the repositories; the collector only needs
// their Count operation.
type recordCounter interface {
	Count(ctx context.Context) (int64, error)
}

type storeCollector struct {
	logger *slog.Logger
	stores map[string]recordCounter
	desc   *prometheus.Desc
}

func newStoreCollector(users repository.UserRepository, products repository.ProductRepository, contracts repository.ContractRepository, logger *slog.Logger) *storeCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &storeCollector{
		logger: logger,
		stores: map[string]recordCounter{
			"users":     users,
			"products":  products,
			"contracts": contracts,
		},
		desc: prometheus.NewDesc(
			"farmgate_records",
			"Current number of stored records by entity.",
			[]string{"entity"},
			nil,
		),
	}
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	// Keep Redis reads bounded so scrapes do not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for entity, store := range c.stores {
		if store == nil {
			continue
		}
		n, err := store.Count(ctx)
		if err != nil {
			c.logger.Warn("metrics: count failed", "entity", entity, "error", err)
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), entity)
	}
}

var registerOnce sync.Once

// RegisterStoreCollector registers the record-count collector. Safe to call
// more than once; only the first registration wins.
func RegisterStoreCollector(users repository.UserRepository, products repository.ProductRepository, contracts repository.ContractRepository, logger *slog.Logger) {
	registerOnce.Do(func() {
		prometheus.MustRegister(newStoreCollector(users, products, contracts, logger))
	})
}
