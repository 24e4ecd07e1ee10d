package metrics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry            *prometheus.Registry
	accountsCreated     prometheus.Counter
	accountsDeleted     prometheus.Counter
	transactionsApplied *prometheus.CounterVec
	transactionsFailed  prometheus.Counter
	interestRuns        prometheus.Counter
	interestCredited    prometheus.Counter
	accountBalance      *prometheus.GaugeVec
	logger              *slog.Logger
}

func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	collector := &Collector{
		registry: registry,
		accountsCreated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "accounts_created_total",
			Help: "Total number of accounts created",
		}),
		accountsDeleted: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "accounts_deleted_total",
			Help: "Total number of accounts deleted",
		}),
		transactionsApplied: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "transactions_applied_total",
			Help: "Total number of applied transactions",
		}, []string{"type"}),
		transactionsFailed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "transactions_failed_total",
			Help: "Total number of rejected transactions",
		}),
		interestRuns: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "interest_runs_total",
			Help: "Total number of monthly interest runs",
		}),
		interestCredited: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "interest_accounts_credited_total",
			Help: "Total number of savings accounts credited with interest",
		}),
		accountBalance: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "account_balance",
			Help: "Current account balance",
		}, []string{"account_id", "currency"}),
		logger: logger,
	}

	return collector
}

func (c *Collector) RecordAccountCreated() {
	c.accountsCreated.Inc()
}

func (c *Collector) RecordAccountDeleted() {
	c.accountsDeleted.Inc()
}

func (c *Collector) RecordTransaction(txType string, success bool) {
	if success {
		c.transactionsApplied.WithLabelValues(txType).Inc()
	} else {
		c.transactionsFailed.Inc()
	}
}

func (c *Collector) RecordInterestRun(accountsCredited int) {
	c.interestRuns.Inc()
	c.interestCredited.Add(float64(accountsCredited))
}

func (c *Collector) UpdateAccountBalance(accountID, currency string, balance float64) {
	c.accountBalance.WithLabelValues(accountID, currency).Set(balance)
}

func (c *Collector) GetHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		c.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

func (c *Collector) Shutdown(ctx context.Context) error {
	c.logger.Info("Metrics collector shutdown complete")
	return nil
}
