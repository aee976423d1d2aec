package metrics

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Business metric names
const (
	MetricNameBetsCreated     = "bets_created_total"
	MetricNameBetsLocked      = "bets_locked_total"
	MetricNameBetsResolved    = "bets_resolved_total"
	MetricNameBetsCancelled   = "bets_cancelled_total"
	MetricNameStakesPlaced    = "stakes_placed_total"
	MetricNameStakeVolume     = "stake_volume_total"
	MetricNamePayoutsCredited = "payouts_credited_total"
	MetricNameVersionConflicts = "version_conflicts_total"
)

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of feed events published"
	HelpTextEventHandlerErrors = "Total number of feed event handler errors"
)

// Business metric help text
const (
	HelpTextBetsCreated      = "Total number of bets created"
	HelpTextBetsLocked       = "Total number of bets locked"
	HelpTextBetsResolved     = "Total number of bets resolved"
	HelpTextBetsCancelled    = "Total number of bets cancelled"
	HelpTextStakesPlaced     = "Total number of stakes placed"
	HelpTextStakeVolume      = "Total currency staked"
	HelpTextPayoutsCredited  = "Total currency credited as payouts"
	HelpTextVersionConflicts = "Total number of version-guarded writes rejected"
)

// Common label names used across metrics
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelType   = "type"
	LabelEntity = "entity"
)

// HTTPLatencyBuckets defines the histogram buckets for HTTP request
// duration in seconds, from 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
