package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError is the normalized shape every non-2xx platform response is
// folded into before it propagates through the pipeline.
type APIError struct {
	Message string
	Status  int
	Details any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Details any    `json:"details"`
}

// normalizeError reads the response body best-effort; a body that is not
// JSON still yields a usable APIError carrying the raw text as details.
func normalizeError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Message: http.StatusText(resp.StatusCode),
		Status:  resp.StatusCode,
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Details = string(raw)
		return apiErr
	}

	switch {
	case body.Message != "":
		apiErr.Message = body.Message
	case body.Error != "":
		apiErr.Message = body.Error
	}
	apiErr.Details = body.Details
	return apiErr
}
