package config

// Ledger defaults, overridable via environment
const (
	DefaultInitialBalance      int64 = 1000
	DefaultMaxStakeWhileInDebt int64 = 100
	DefaultNotableStake        int64 = 500

	DefaultSessionTTLMinutes = 60
)
