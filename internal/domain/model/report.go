package model

import "time"

// Rejection records a row the estimator refused in lenient mode.
type Rejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Report summarises one estimation run.
type Report struct {
	ID          string             `json:"id"`
	Source      string             `json:"source"`
	CreatedAt   time.Time          `json:"created_at"`
	Duration    time.Duration      `json:"duration_ns"`
	Layout      Layout             `json:"layout"`
	Proportions map[string]float64 `json:"proportions"`
	Rows        int                `json:"rows"`
	Patched     int                `json:"patched"`
	Estimated   int                `json:"estimated"`
	Rejected    []Rejection        `json:"rejected"`
	Output      string             `json:"output,omitempty"`
}
