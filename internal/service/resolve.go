package service

import (
	"strings"

	"github.com/dandegeest/aMiRROrMySubconscious/internal/models"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/registry"
)

// Resolved is a generation request ready for dispatch.
type Resolved struct {
	// Version is the upstream model version id to run.
	Version string
	// Input is the model input. It never contains model_version.
	Input models.Params
	// Image is the raw image reference, empty when none was supplied.
	Image string
}

// Resolve merges raw over defaults, keeping only recognized and passthrough
// names, then selects the upstream version. Neither argument is modified.
func Resolve(raw, defaults models.Params, reg *registry.Registry) (*Resolved, error) {
	input := defaults.Clone()
	_, hasImage := raw[ParamImage]

	for k, v := range raw {
		if k == aliasInputImage {
			if hasImage {
				continue
			}
			k = ParamImage
		}
		if _, ok := defaults[k]; ok {
			input[k] = v
			continue
		}
		if _, ok := passthrough[k]; ok {
			input[k] = v
		}
	}

	res := &Resolved{Input: input}

	if err := res.takeImage(); err != nil {
		return nil, err
	}

	variant := input[ParamModelVersion]
	delete(input, ParamModelVersion)
	if variant != nil && variant != "" {
		name, _ := variant.(string)
		entry, found := reg.Lookup(name)
		if !found {
			return nil, validationErrorf("Unknown model version: %v", variant)
		}
		input[ParamModel] = reg.BaselineEngine()
		res.Version = entry.Version
		if err := applyTrigger(input, entry.Trigger); err != nil {
			return nil, err
		}
		return res, nil
	}

	model, _ := input[ParamModel].(string)
	if !reg.IsValidModel(model) {
		return nil, validationErrorf("Invalid model: %v", input[ParamModel])
	}
	res.Version = reg.BaselineVersion()
	return res, nil
}

func (r *Resolved) takeImage() error {
	v, ok := r.Input[ParamImage]
	if !ok {
		return nil
	}
	ref, isString := v.(string)
	switch {
	case v == nil || (isString && ref == ""):
		delete(r.Input, ParamImage)
	case !isString:
		return validationErrorf("image must be a string")
	default:
		r.Image = ref
	}
	return nil
}

// applyTrigger prepends trigger to the prompt unless the prompt already
// starts with it. The check is a plain prefix test.
func applyTrigger(input models.Params, trigger string) error {
	if trigger == "" {
		return nil
	}
	var prompt string
	if v, ok := input[ParamPrompt]; ok && v != nil {
		s, isString := v.(string)
		if !isString {
			return validationErrorf("prompt must be a string")
		}
		prompt = s
	}
	if strings.HasPrefix(prompt, trigger) {
		return nil
	}
	input[ParamPrompt] = strings.TrimSpace(trigger + " " + prompt)
	return nil
}
