package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Business Metrics
var (
	BetsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameBetsCreated,
			Help: HelpTextBetsCreated,
		},
	)

	BetsLocked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameBetsLocked,
			Help: HelpTextBetsLocked,
		},
	)

	BetsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameBetsResolved,
			Help: HelpTextBetsResolved,
		},
	)

	BetsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameBetsCancelled,
			Help: HelpTextBetsCancelled,
		},
	)

	StakesPlaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameStakesPlaced,
			Help: HelpTextStakesPlaced,
		},
	)

	StakeVolume = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameStakeVolume,
			Help: HelpTextStakeVolume,
		},
	)

	PayoutsCredited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNamePayoutsCredited,
			Help: HelpTextPayoutsCredited,
		},
	)

	VersionConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameVersionConflicts,
			Help: HelpTextVersionConflicts,
		},
		[]string{LabelEntity},
	)
)
