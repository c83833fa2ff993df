package types

import (
	"time"
)

// Planet represents a target body selected by the user
type Planet struct {
	Name     string  `json:"name"`
	RA       float64 `json:"ra"`       // degrees
	Dec      float64 `json:"dec"`      // degrees
	Distance float64 `json:"distance"` // parsecs
}

// Star represents a background source as observed from the reference point
type Star struct {
	SourceID  string  `json:"source_id"`
	RA        float64 `json:"ra"`        // degrees
	Dec       float64 `json:"dec"`       // degrees
	Magnitude float64 `json:"magnitude"` // observed G magnitude
}

// VisibleStar is a Star annotated for one planet
type VisibleStar struct {
	Star
	Separation        float64 `json:"separation"` // degrees from the planet
	ApparentMagnitude float64 `json:"apparent_magnitude"`
}

// MagnitudeStats summarizes the apparent magnitudes of a view
type MagnitudeStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// HistogramBin is one bin of the magnitude histogram, half-open [Low, High)
type HistogramBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// SkyView is the result of one target selection
type SkyView struct {
	Planet         Planet         `json:"planet"`
	Stars          []VisibleStar  `json:"stars"`
	MagnitudeLimit float64        `json:"magnitude_limit"`
	Radius         float64        `json:"radius"`
	Stats          MagnitudeStats `json:"stats"`
	Histogram      []HistogramBin `json:"histogram"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// Acknowledgement is returned when a custom constellation is "saved"
type Acknowledgement struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StarIDs   []string  `json:"star_ids"`
	StarCount int       `json:"star_count"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
