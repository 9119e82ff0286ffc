// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package models

// PredictionInput is the feature set sent to the ML service for a price
// prediction. Unset optional fields are filled by ApplyDefaults before
// validation.
type PredictionInput struct {
	ListYear        int     `json:"list_year" validate:"omitempty,gte=1900,lte=2030"`
	AssessedValue   float64 `json:"assessed_value" validate:"required,gt=0"`
	PropertyType    string  `json:"property_type" validate:"required"`
	ResidentialType string  `json:"residential_type"`
	Town            string  `json:"town" validate:"required"`
	YearsUntilSold  int     `json:"years_until_sold" validate:"gte=0"`
}

// ApplyDefaults fills the optional model features the way the ML service
// expects them when the client omits them.
func (in *PredictionInput) ApplyDefaults() {
	if in.ListYear == 0 {
		in.ListYear = 2020
	}
	if in.ResidentialType == "" {
		in.ResidentialType = "Unknown"
	}
}

// Prediction is the raw model output for one property.
type Prediction struct {
	PredictedPrice  float64 `json:"predicted_price"`
	AssessedValue   float64 `json:"assessed_value"`
	PriceRatio      float64 `json:"price_ratio"`
	ConfidenceScore float64 `json:"confidence_score"`
	ModelVersion    string  `json:"model_version"`
}

// PredictionInsight is one human-readable observation derived from a
// prediction, such as the predicted price diverging from the assessed
// value.
type PredictionInsight struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// PredictionResult is the enriched prediction returned to clients: the
// model output, the input it was computed from, and derived insights.
type PredictionResult struct {
	Prediction
	Input    PredictionInput     `json:"input_data"`
	Insights []PredictionInsight `json:"insights"`
}

// BatchPredictionItem pairs one successful prediction with the index of
// its input in the submitted batch.
type BatchPredictionItem struct {
	Index      int              `json:"index"`
	Input      PredictionInput  `json:"input"`
	Prediction PredictionResult `json:"prediction"`
}

// BatchPredictionError reports why one batch entry failed.
type BatchPredictionError struct {
	Index   int         `json:"index"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// BatchPredictionResult summarizes a batch prediction run. Entries fail
// independently; one bad property does not abort the batch.
type BatchPredictionResult struct {
	Total      int                    `json:"total"`
	Successful int                    `json:"successful"`
	Failed     int                    `json:"failed"`
	Results    []BatchPredictionItem  `json:"results"`
	Errors     []BatchPredictionError `json:"errors"`
}

// ModelCategories lists the categorical values the model was trained on,
// as reported by the ML service's model-info endpoint.
type ModelCategories struct {
	PropertyTypes    []string `json:"property_types"`
	ResidentialTypes []string `json:"residential_types"`
	Towns            []string `json:"towns"`
}

// ModelInfo is the subset of the ML service's model-info payload the
// features endpoint consumes.
type ModelInfo struct {
	Model struct {
		Type                string             `json:"type"`
		FeatureImportance   map[string]float64 `json:"feature_importance"`
		AvailableCategories ModelCategories    `json:"available_categories"`
	} `json:"model_info"`
}

// FeatureSpec describes one model input feature for clients building
// prediction forms.
type FeatureSpec struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Options     []string    `json:"options,omitempty"`
	Min         *float64    `json:"min,omitempty"`
	Max         *float64    `json:"max,omitempty"`
	Default     interface{} `json:"default,omitempty"`
}

// PredictionFeatures documents the prediction input schema together with
// the trained model's categorical vocabulary.
type PredictionFeatures struct {
	Required []FeatureSpec `json:"required"`
	Optional []FeatureSpec `json:"optional"`
	Model    struct {
		Type              string             `json:"type"`
		FeatureImportance map[string]float64 `json:"feature_importance"`
		Version           string             `json:"version"`
	} `json:"model_info"`
}
