package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/models"
)

// maxBodyBytes leaves room for inline base64 images.
const maxBodyBytes = 32 << 20

var errEmptyBody = errors.New("request body is empty")

// decodeParams reads a JSON object body. An empty body yields errEmptyBody
// together with an empty, non-nil mapping.
func decodeParams(w http.ResponseWriter, r *http.Request) (models.Params, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Params{}, errEmptyBody
	}

	var params models.Params
	if err := sonic.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if params == nil {
		params = models.Params{}
	}
	return params, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to encode: %s", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
