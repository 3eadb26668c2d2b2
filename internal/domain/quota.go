package domain

import "time"

// QuotaUsage reports the state of the daily external-fetch quota.
type QuotaUsage struct {
	Used      int64     `json:"used"`
	Limit     int64     `json:"limit"`
	Remaining int64     `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}
