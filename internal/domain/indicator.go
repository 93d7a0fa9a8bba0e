package domain

import "time"

// IndicatorSnapshot indicator value observed by the loop.
type IndicatorSnapshot struct {
	Timestamp time.Time `json:"ts"`
	Pair      string    `json:"pair"`
	Value     float64   `json:"value"`
	Previous  float64   `json:"previous"`
	Mode      Mode      `json:"mode"`
	Decision  string    `json:"decision"`
}
