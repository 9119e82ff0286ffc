// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package ml

import (
	"fmt"

	"github.com/mendezluchoo/urbanytics/internal/models"
)

// Insights derives human-readable observations from a prediction. The
// price-ratio band is always reported; property type and town add
// contextual entries when present.
func Insights(p models.Prediction, input models.PredictionInput) []models.PredictionInsight {
	insights := make([]models.PredictionInsight, 0, 3)
	detail := fmt.Sprintf("Ratio: %.1f%%", p.PriceRatio*100)

	switch {
	case p.PriceRatio > 1.1:
		insights = append(insights, models.PredictionInsight{
			Type:    "warning",
			Message: "Predicted price is significantly above the assessed value",
			Detail:  detail,
		})
	case p.PriceRatio < 0.9:
		insights = append(insights, models.PredictionInsight{
			Type:    "opportunity",
			Message: "Predicted price is below the assessed value",
			Detail:  detail,
		})
	default:
		insights = append(insights, models.PredictionInsight{
			Type:    "neutral",
			Message: "Predicted price is aligned with the assessed value",
			Detail:  detail,
		})
	}

	if input.PropertyType != "" {
		insights = append(insights, models.PredictionInsight{
			Type:    "info",
			Message: "Analysis for type: " + input.PropertyType,
			Detail:  "Based on historical market data",
		})
	}
	if input.Town != "" {
		insights = append(insights, models.PredictionInsight{
			Type:    "info",
			Message: "Analysis for town: " + input.Town,
			Detail:  "Accounting for local market trends",
		})
	}

	return insights
}
