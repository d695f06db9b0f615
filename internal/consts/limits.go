package consts

import "time"

// Hard ceilings for a stored session. Requested values above these are
// clamped silently.
const (
	MaxIdle     = 48 * time.Hour
	MaxLifetime = 16 * 24 * time.Hour
)

const (
	DefaultIDBytes         = 512
	DefaultReadTimeout     = 50 * time.Millisecond
	DefaultWriteTimeout    = time.Second
	DefaultMaxRequestBytes = 64 * 1024
	DefaultSocketMode      = 0o660
	DefaultSweepSchedule   = "@every 5m"
)
