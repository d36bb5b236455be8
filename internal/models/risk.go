package models

type Band string

const (
	BandLow    Band = "Low"
	BandMedium Band = "Medium"
	BandHigh   Band = "High"
)

type RiskAssessment struct {
	Percent  int      `json:"percent"`
	Band     Band     `json:"band"`
	Insights []string `json:"insights"`
}
