package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteTotal counts pricing quote computations by booking unit and outcome.
	QuoteTotal *prometheus.CounterVec
	// BookingCreatedTotal counts booking creation outcomes.
	BookingCreatedTotal *prometheus.CounterVec
	// BookingCancelledTotal counts booking cancellations, split by whether a
	// refund breakdown was issued.
	BookingCancelledTotal *prometheus.CounterVec
	// BookingExpiredTotal counts bookings expired by the background worker.
	BookingExpiredTotal prometheus.Counter
	// ListingCacheTotal counts listing cache lookups by result.
	ListingCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_quote_total",
			Help:      "Count of pricing quote computations by unit and outcome.",
		}, []string{"unit", "result"})
		BookingCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_created_total",
			Help:      "Count of booking creation outcomes.",
		}, []string{"result"})
		BookingCancelledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_cancelled_total",
			Help:      "Count of booking cancellations by refund disposition.",
		}, []string{"refunded"})
		BookingExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_expired_total",
			Help:      "Number of bookings expired by the background worker.",
		})
		ListingCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_cache_total",
			Help:      "Listing cache lookups by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, QuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteTotal = v
			}
		})
		mustRegisterCollector(reg, BookingCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BookingCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, BookingCancelledTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BookingCancelledTotal = v
			}
		})
		mustRegisterCollector(reg, BookingExpiredTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				BookingExpiredTotal = v
			}
		})
		mustRegisterCollector(reg, ListingCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ListingCacheTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
