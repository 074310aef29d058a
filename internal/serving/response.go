package serving

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest = "bad_request"
	CodeInternal   = "internal"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// PredictResponse is the body of a single prediction.
type PredictResponse struct {
	Probability float64 `json:"probability"`
}

// BatchPredictResponse holds one probability per input record, in input order.
type BatchPredictResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	ModelID string `json:"model_id,omitempty"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Code: code})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
