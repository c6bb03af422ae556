package models

// Params is a loosely typed generation parameter mapping as it travels
// between the client, the defaults store and the upstream model input.
type Params map[string]any

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// GenerateResponse is the body of POST /generate.
type GenerateResponse struct {
	Success      bool   `json:"success"`
	OutputURL    any    `json:"output_url,omitempty" swaggertype:"string" example:"https://replicate.delivery/pbxt/out-0.png"`
	PredictionID string `json:"prediction_id,omitempty" example:"gm3qorzdhgbfurvjtvhg6dckhu"`
	Status       string `json:"status,omitempty" example:"starting"`
	Error        string `json:"error,omitempty"`
}

// ConfigResponse is returned after a successful POST /config.
type ConfigResponse struct {
	Success bool   `json:"success"`
	Params  Params `json:"params,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ModelsResponse struct {
	Models []string `json:"models" example:"klingon,subconscious"`
}

type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}
