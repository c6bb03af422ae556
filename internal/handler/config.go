package handler

import (
	"errors"
	"net/http"

	"github.com/dandegeest/aMiRROrMySubconscious/internal/models"
)

type configService interface {
	Defaults() models.Params
	UpdateDefaults(overrides models.Params) models.Params
	Models() []string
}

type ConfigHandler struct {
	service configService
}

func NewConfigHandler(service configService) *ConfigHandler {
	return &ConfigHandler{service: service}
}

// GetConfig godoc
// @Summary Current default parameters
// @Tags config
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /config [get]
// @Router /config/defaults [get]
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Defaults())
}

// UpdateConfig godoc
// @Summary Update default parameters
// @Description Only keys that already exist in the defaults are applied; others are ignored.
// @Tags config
// @Accept json
// @Produce json
// @Param request body object true "Partial parameter overrides"
// @Success 200 {object} models.ConfigResponse
// @Failure 400 {object} models.ConfigResponse
// @Router /config [post]
func (h *ConfigHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	overrides, err := decodeParams(w, r)
	if err != nil {
		if errors.Is(err, errEmptyBody) {
			err = errors.New("request body must be a JSON object")
		}
		writeJSON(w, http.StatusBadRequest, models.ConfigResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, models.ConfigResponse{
		Success: true,
		Params:  h.service.UpdateDefaults(overrides),
	})
}

// Models godoc
// @Summary Named model variants
// @Tags models
// @Produce json
// @Success 200 {object} models.ModelsResponse
// @Router /models [get]
func (h *ConfigHandler) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ModelsResponse{Models: h.service.Models()})
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "healthy"})
}
