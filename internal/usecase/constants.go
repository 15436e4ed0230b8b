package usecase

import "time"

const (
	// PassLockTTL bounds how long a stuck pass can hold its lock.
	PassLockTTL = 10 * time.Minute

	// Manual-trigger rate limit keys.
	RateKeyManualHourly = "manual:hourly"
	RateKeyManualDaily  = "manual:daily"

	// DefaultHistoryPageSize is the default page size for history lists.
	DefaultHistoryPageSize = 20

	// MaxHistoryPageSize caps history page sizes.
	MaxHistoryPageSize = 100
)
