package services

import (
	"fmt"

	"github.com/yourusername/grid-scout-api/internal/models"
)

// CalculateConfidence grades a report by sample size. Thresholds assume a
// tier-one competitive schedule of roughly two series a month; a window that
// produced far fewer means the team was inactive or the data is thin.
func CalculateConfidence(sampleSize, windowMonths int) models.Confidence {
	var level models.ConfidenceLevel
	var reliabilityScore int

	switch {
	case sampleSize >= 15:
		level = models.ConfidenceHigh
		reliabilityScore = 95
	case sampleSize >= 10:
		level = models.ConfidenceHigh
		reliabilityScore = 85
	case sampleSize >= 5:
		level = models.ConfidenceMedium
		reliabilityScore = 60
	case sampleSize >= 3:
		level = models.ConfidenceLow
		reliabilityScore = 40
	default:
		level = models.ConfidenceLow
		reliabilityScore = 20
	}

	reasoning := fmt.Sprintf("Based on %d series over the last %d months", sampleSize, windowMonths)
	if windowMonths == 1 {
		reasoning = fmt.Sprintf("Based on %d series over the last month", sampleSize)
	}
	switch level {
	case models.ConfidenceHigh:
		reasoning += " - highly reliable"
	case models.ConfidenceMedium:
		reasoning += " - moderately reliable"
	case models.ConfidenceLow:
		reasoning += " - limited data, treat with caution"
	}

	return models.Confidence{
		Level:            level,
		SampleSize:       sampleSize,
		Reasoning:        reasoning,
		ReliabilityScore: reliabilityScore,
	}
}
