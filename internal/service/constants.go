package service

const (
	ParamModel        = "model"
	ParamPrompt       = "prompt"
	ParamImage        = "image"
	ParamModelVersion = "model_version"
	ParamLora         = "lora"

	// aliasInputImage is accepted as another name for ParamImage.
	aliasInputImage = "input_image"
)

// passthrough names are accepted from clients even though they have no default.
var passthrough = map[string]struct{}{
	ParamImage:        {},
	ParamModelVersion: {},
	ParamLora:         {},
}
