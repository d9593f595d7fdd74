package metrics

import (
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type EconomyMetrics struct {
	transactions *prometheus.CounterVec
	txLatency    *prometheus.HistogramVec
	tokenVolume  *prometheus.CounterVec
	reserveFlow  *prometheus.CounterVec
	rewardsPaid  *prometheus.CounterVec
	spotPrice    *prometheus.GaugeVec
	throttles    *prometheus.CounterVec
	subscribers  prometheus.Gauge
}

var (
	economyOnce     sync.Once
	economyRegistry *EconomyMetrics
)

// Economy returns the lazily registered collectors describing issuance,
// rewards and transaction outcomes.
func Economy() *EconomyMetrics {
	economyOnce.Do(func() {
		economyRegistry = &EconomyMetrics{
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "vine",
				Subsystem: "tx",
				Name:      "applied_total",
				Help:      "Transactions applied segmented by type and outcome kind.",
			}, []string{"type", "outcome"}),
			txLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "vine",
				Subsystem: "tx",
				Name:      "apply_duration_seconds",
				Help:      "Latency of applying a transaction including commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"type"}),
			tokenVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "vine",
				Subsystem: "issuance",
				Name:      "token_volume_total",
				Help:      "Creator token units minted or burned per asset.",
			}, []string{"asset", "direction"}),
			reserveFlow: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "vine",
				Subsystem: "issuance",
				Name:      "reserve_flow_total",
				Help:      "Reserve currency paid into or out of bonding curves per asset.",
			}, []string{"asset", "direction"}),
			rewardsPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "vine",
				Subsystem: "content",
				Name:      "rewards_paid_total",
				Help:      "Reward currency paid segmented by source.",
			}, []string{"source"}),
			spotPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "vine",
				Subsystem: "issuance",
				Name:      "spot_price",
				Help:      "Last computed spot price per asset.",
			}, []string{"asset"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "vine",
				Subsystem: "gateway",
				Name:      "throttled_total",
				Help:      "Requests rejected by the rate limiter per route.",
			}, []string{"route"}),
			subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "vine",
				Subsystem: "gateway",
				Name:      "stream_subscribers",
				Help:      "Active websocket event subscribers.",
			}),
		}
		prometheus.MustRegister(
			economyRegistry.transactions,
			economyRegistry.txLatency,
			economyRegistry.tokenVolume,
			economyRegistry.reserveFlow,
			economyRegistry.rewardsPaid,
			economyRegistry.spotPrice,
			economyRegistry.throttles,
			economyRegistry.subscribers,
		)
	})
	return economyRegistry
}

func label(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

// ObserveTransaction records the outcome and latency of one applied transaction.
func (m *EconomyMetrics) ObserveTransaction(txType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(label(txType), label(outcome)).Inc()
	m.txLatency.WithLabelValues(label(txType)).Observe(elapsed.Seconds())
}

// ObserveMint records a buy or airdrop.
func (m *EconomyMetrics) ObserveMint(asset string, amount, cost *big.Int) {
	if m == nil {
		return
	}
	m.tokenVolume.WithLabelValues(label(asset), "mint").Add(toFloat(amount))
	m.reserveFlow.WithLabelValues(label(asset), "in").Add(toFloat(cost))
}

// ObserveBurn records a sell.
func (m *EconomyMetrics) ObserveBurn(asset string, amount, refund *big.Int) {
	if m == nil {
		return
	}
	m.tokenVolume.WithLabelValues(label(asset), "burn").Add(toFloat(amount))
	m.reserveFlow.WithLabelValues(label(asset), "out").Add(toFloat(refund))
}

func (m *EconomyMetrics) ObserveReward(source string, amount *big.Int) {
	if m == nil {
		return
	}
	m.rewardsPaid.WithLabelValues(label(source)).Add(toFloat(amount))
}

func (m *EconomyMetrics) SetSpotPrice(asset string, price *big.Int) {
	if m == nil {
		return
	}
	m.spotPrice.WithLabelValues(label(asset)).Set(toFloat(price))
}

func (m *EconomyMetrics) IncThrottle(route string) {
	if m == nil {
		return
	}
	m.throttles.WithLabelValues(label(route)).Inc()
}

// TrackSubscriber adjusts the live subscriber gauge by delta.
func (m *EconomyMetrics) TrackSubscriber(delta int) {
	if m == nil {
		return
	}
	m.subscribers.Add(float64(delta))
}
