package main

import "time"

type GenerateRequest struct {
	Model        string `json:"model,omitempty"`
	ModelVersion string `json:"model_version,omitempty"`
	Prompt       string `json:"prompt"`
	Image        string `json:"image,omitempty"`
}

type GenerateResponse struct {
	Success      bool   `json:"success"`
	OutputURL    any    `json:"output_url"`
	PredictionID string `json:"prediction_id"`
	Status       string `json:"status"`
	Error        string `json:"error"`
}

type BenchResult struct {
	Outcome  string
	Code     int
	Duration time.Duration
	Err      error
	Size     int64
}

type Agg struct {
	Count      int
	Total      time.Duration
	TotalBytes int64
}
