package models

// Requests for the feature HTTP endpoints.

type FeaturesRequest struct {
	Region string `query:"region" json:"region" validate:"required,oneof=NSW1 QLD1 VIC1 SA1 TAS1"`
	From   string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}

type AnomaliesRequest struct {
	Region string `query:"region" json:"region" validate:"omitempty,oneof=NSW1 QLD1 VIC1 SA1 TAS1"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=5000"`
}
