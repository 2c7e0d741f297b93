package samplegen

import "github.com/okian/splits/internal/domain/model"

// Config holds configuration for a synthetic cohort.
type Config struct {
	Athletes    int          // Number of result rows
	Layout      model.Layout // Segment and total columns to emit
	MissingRate float64      // Probability that a single segment is blanked out
	SlackMax    int          // Upper bound on seconds of gun time outside all segments
	Seed        int64        // Seed for reproducible output
}

// Typical leg durations in seconds for an Olympic-distance triathlon.
var typicalSeconds = map[string]int{
	"Swim": 1800,
	"T1":   120,
	"Bike": 4200,
	"T2":   90,
	"Run":  2700,
}

const defaultSegmentSeconds = 900
