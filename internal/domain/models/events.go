package models

import "time"

// AnomalyEvent is published for every day the feature engine flags.
type AnomalyEvent struct {
	RunID                  string    `json:"run_id"`
	Region                 Region    `json:"region"`
	Date                   string    `json:"date"`
	MeanPrice              float64   `json:"mean_price"`
	PriceVolatility        *float64  `json:"price_volatility,omitempty"`
	MeanEmissionsIntensity *float64  `json:"mean_emissions_intensity,omitempty"`
	AnomalyScore           float64   `json:"anomaly_score"`
	Direction              string    `json:"direction"` // "spike" or "drop"
	EmittedAt              time.Time `json:"emitted_at"`
}
