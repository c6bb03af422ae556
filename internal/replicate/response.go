package replicate

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dandegeest/aMiRROrMySubconscious/internal/models"
	"github.com/tidwall/gjson"
)

const (
	statusSucceeded = "succeeded"
	maxDetailLen    = 512
)

func mapResponse(code int, body []byte) models.Outcome {
	if code == http.StatusUnprocessableEntity {
		detail := "Unknown error"
		if d := gjson.GetBytes(body, "detail"); d.Exists() && d.Type != gjson.Null {
			detail = d.String()
		}
		return models.Outcome{Kind: models.OutcomeRejected, Detail: detail}
	}

	if code < 200 || code > 299 {
		return models.Outcome{
			Kind:   models.OutcomeFailed,
			Detail: fmt.Sprintf("upstream returned %d %s: %s", code, http.StatusText(code), truncate(body)),
		}
	}

	if !gjson.ValidBytes(body) {
		return models.Outcome{
			Kind:   models.OutcomeFailed,
			Detail: fmt.Sprintf("invalid prediction response: %s", truncate(body)),
		}
	}

	result := gjson.ParseBytes(body)
	output := result.Get("output")
	if output.IsArray() {
		if items := output.Array(); len(items) > 0 {
			return models.Outcome{Kind: models.OutcomeSucceeded, Output: items[0].Value()}
		}
	}

	status := result.Get("status").String()
	if status == statusSucceeded {
		return models.Outcome{Kind: models.OutcomeSucceeded, Output: output.Value()}
	}

	return models.Outcome{
		Kind:   models.OutcomePending,
		ID:     result.Get("id").String(),
		Status: status,
	}
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxDetailLen {
		return s[:maxDetailLen] + "..."
	}
	return s
}
