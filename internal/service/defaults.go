package service

import (
	"sync"

	"github.com/dandegeest/aMiRROrMySubconscious/internal/models"
)

// BuiltinDefaults returns the parameter set the process starts with.
func BuiltinDefaults() models.Params {
	return models.Params{
		"model":               "schnell",
		"width":               720,
		"height":              1280,
		"prompt":              "MY_SUBCONSCIOUS",
		"go_fast":             false,
		"lora_scale":          1,
		"megapixels":          "1",
		"num_outputs":         1,
		"aspect_ratio":        "custom",
		"output_format":       "png",
		"guidance_scale":      3,
		"output_quality":      80,
		"prompt_strength":     0.8,
		"extra_lora_scale":    1,
		"num_inference_steps": 4,
	}
}

// Defaults is the process-wide default parameter set. The map it guards is
// never mutated in place; Merge swaps in a new one, so a snapshot handed to a
// reader stays consistent.
type Defaults struct {
	mu     sync.RWMutex
	params models.Params
}

func NewDefaults(initial models.Params) *Defaults {
	return &Defaults{params: initial.Clone()}
}

// Snapshot returns a private copy of the current defaults.
func (d *Defaults) Snapshot() models.Params {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.params.Clone()
}

// Recognized reports whether key is one of the default parameter names.
func (d *Defaults) Recognized(key string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.params[key]
	return ok
}

// Merge replaces the values of pre-existing keys with those in overrides.
// Unknown keys are ignored. The updated set is returned.
func (d *Defaults) Merge(overrides models.Params) models.Params {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.params.Clone()
	for k, v := range overrides {
		if _, ok := next[k]; ok {
			next[k] = v
		}
	}
	d.params = next
	return next.Clone()
}
