package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/dandegeest/aMiRROrMySubconscious/internal/models"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/service"
	"go.uber.org/zap"
)

type generateService interface {
	Generate(ctx context.Context, raw models.Params) (*models.Outcome, error)
}

type GenerateHandler struct {
	logger  *zap.Logger
	service generateService
}

func NewGenerateHandler(logger *zap.Logger, service generateService) *GenerateHandler {
	return &GenerateHandler{
		logger:  logger,
		service: service,
	}
}

// Generate godoc
// @Summary Generate an image
// @Description Merge the given parameters over the current defaults and run a prediction.
// @Description Pass model_version to select a named variant, or model for a bare engine.
// @Description image may be an http(s) URL, a data URI or a server-local path.
// @Tags generate
// @Accept json
// @Produce json
// @Param request body object false "Generation parameters"
// @Success 200 {object} models.GenerateResponse
// @Failure 400 {object} models.GenerateResponse
// @Failure 422 {object} models.GenerateResponse
// @Failure 500 {object} models.GenerateResponse
// @Router /generate [post]
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeParams(w, r)
	if err != nil && !errors.Is(err, errEmptyBody) {
		writeJSON(w, http.StatusBadRequest, models.GenerateResponse{Error: err.Error()})
		return
	}

	out, err := h.service.Generate(r.Context(), raw)
	if err != nil {
		status := statusFor(service.KindOf(err))
		if status >= http.StatusInternalServerError {
			h.logger.Error("generate failed", zap.Error(err))
		} else {
			h.logger.Info("generate rejected", zap.Int("status", status), zap.Error(err))
		}
		writeJSON(w, status, models.GenerateResponse{Error: err.Error()})
		return
	}

	resp := models.GenerateResponse{Success: true}
	if out.Kind == models.OutcomeSucceeded {
		resp.OutputURL = out.Output
	} else {
		resp.PredictionID = out.ID
		resp.Status = out.Status
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindImage:
		return http.StatusBadRequest
	case service.KindUpstreamRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
