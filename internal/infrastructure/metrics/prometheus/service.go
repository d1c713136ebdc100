package prometheus_metrics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinvault/internal/core/domain"
)

const (
	namespace = "coinvault"

	gigabyte = 1 << 30
)

// Service collects the coin ledger stats into its own prometheus registry.
type Service struct {
	registry *prometheus.Registry

	transforms        *prometheus.CounterVec
	transformSplits   *prometheus.CounterVec
	transformOutputs  *prometheus.HistogramVec
	supply            *prometheus.GaugeVec
	minted            *prometheus.CounterVec
	burned            *prometheus.CounterVec
	coinEvents        *prometheus.CounterVec
	coinEventsEntries *prometheus.CounterVec
	failures          *prometheus.CounterVec

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

// NewService returns a metrics service with the go runtime and process
// collectors already registered.
func NewService() *Service {
	registry := prometheus.NewRegistry()
	factory := func(c prometheus.Collector) prometheus.Collector {
		registry.MustRegister(c)
		return c
	}

	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("metrics: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("metrics: %s", format)
		log.WithError(err).Warnf(format, a...)
	}

	factory(collectors.NewGoCollector())
	factory(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Service{
		registry: registry,
		transforms: factory(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transforms_total",
			Help:      "Number of coin transformations by currency and regime.",
		}, []string{"currency", "regime"})).(*prometheus.CounterVec),
		transformSplits: factory(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_splits_total",
			Help:      "Number of coins split while transforming.",
		}, []string{"currency"})).(*prometheus.CounterVec),
		transformOutputs: factory(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_output_coins",
			Help:      "Number of coins returned by a transformation.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"currency"})).(*prometheus.HistogramVec),
		supply: factory(prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_supply",
			Help:      "Total supply by currency.",
		}, []string{"currency"})).(*prometheus.GaugeVec),
		minted: factory(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "minted_total",
			Help:      "Amount minted by currency.",
		}, []string{"currency"})).(*prometheus.CounterVec),
		burned: factory(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "burned_total",
			Help:      "Amount burned by currency.",
		}, []string{"currency"})).(*prometheus.CounterVec),
		coinEvents: factory(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coin_events_total",
			Help:      "Number of coin repository events by type.",
		}, []string{"event"})).(*prometheus.CounterVec),
		coinEventsEntries: factory(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coin_event_coins_total",
			Help:      "Number of coins carried by coin repository events by type.",
		}, []string{"event"})).(*prometheus.CounterVec),
		failures: factory(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Number of failed operations by error kind.",
		}, []string{"operation", "kind"})).(*prometheus.CounterVec),
		log:  logFn,
		warn: warnFn,
	}
}

func (s *Service) ObserveTransform(
	currency domain.Currency, stats domain.TransformStats,
) {
	labels := prometheus.Labels{"currency": currency.String()}
	s.transforms.With(prometheus.Labels{
		"currency": currency.String(),
		"regime":   stats.Regime.String(),
	}).Inc()
	s.transformSplits.With(labels).Add(float64(stats.Splits))
	s.transformOutputs.With(labels).Observe(float64(stats.OutputCoins))
}

func (s *Service) ObserveSupplyChange(
	currency domain.Currency, minted, burned, total uint64,
) {
	labels := prometheus.Labels{"currency": currency.String()}
	s.minted.With(labels).Add(float64(minted))
	s.burned.With(labels).Add(float64(burned))
	s.supply.With(labels).Set(float64(total))
}

func (s *Service) ObserveCoinEvent(event domain.CoinEvent) {
	labels := prometheus.Labels{"event": event.EventType.String()}
	s.coinEvents.With(labels).Inc()
	s.coinEventsEntries.With(labels).Add(float64(len(event.Coins)))
}

func (s *Service) ObserveFailure(operation string, err error) {
	if err == nil {
		return
	}
	kind := "unknown"
	if k, ok := domain.KindOf(err); ok {
		kind = k.String()
	}
	s.failures.With(prometheus.Labels{
		"operation": operation,
		"kind":      kind,
	}).Inc()
}

// Gatherer returns the registry the metrics are collected into.
func (s *Service) Gatherer() prometheus.Gatherer {
	return s.registry
}

// Dump writes the collected metrics to a new file named after the current
// time in the given directory, and logs memory statistics.
func (s *Service) Dump(dir string) error {
	s.printMemoryStatistics()

	if err := os.MkdirAll(dir, os.ModeDir|0755); err != nil {
		return err
	}

	path := filepath.Join(dir, time.Now().Format(time.RFC3339))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	metricFamilies, err := s.registry.Gather()
	if err != nil {
		return err
	}
	for _, v := range metricFamilies {
		if _, err := writer.WriteString(v.String() + "\n"); err != nil {
			return err
		}
	}

	s.log("dumped %d metric families to %s", len(metricFamilies), path)
	return nil
}

func (s *Service) printMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	s.log(
		"total allocated: %.3fGB, heap allocated: %.3fGB, "+
			"allocated objects count: %v, freed objects count: %v, go routines: %d",
		float64(memStats.TotalAlloc)/gigabyte,
		float64(memStats.HeapAlloc)/gigabyte,
		memStats.Mallocs,
		memStats.Frees,
		runtime.NumGoroutine(),
	)
}
