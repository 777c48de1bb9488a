package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"shdp-backend/internal/common"
	"shdp-backend/internal/disease"
	"shdp-backend/internal/ml"
)

// handlePredict resolves the model, validates the symptoms and runs inference.
//
// Request:  {"disease_type": "diabetes", "symptoms": [2, 120, 70, ...]}
// Response: {"predicted_disease": "...", "risk_level": "High", "confidence": "80.0%"}
func (s *Server) handlePredict(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || len(body) == 0 {
		abortWithError(c, http.StatusBadRequest, common.ErrMsgNoData)
		return
	}

	raw := body["disease_type"]
	if isEmptyValue(raw) {
		abortWithError(c, http.StatusBadRequest, common.ErrMsgDiseaseRequired)
		return
	}
	diseaseType, ok := raw.(string)
	if !ok {
		abortWithError(c, http.StatusBadRequest, invalidDiseaseMessage(fmt.Sprint(raw)))
		return
	}

	symptoms, ok := body["symptoms"].([]any)
	if !ok || len(symptoms) == 0 {
		abortWithError(c, http.StatusBadRequest, common.ErrMsgSymptomsList)
		return
	}

	if !disease.Valid(diseaseType) {
		abortWithError(c, http.StatusBadRequest, invalidDiseaseMessage(diseaseType))
		return
	}

	model, err := s.registry.Resolve(diseaseType)
	if err != nil {
		s.respondError(c, err)
		return
	}

	features, err := ml.Validate(diseaseType, symptoms)
	if err != nil {
		s.respondError(c, err)
		return
	}

	result, err := s.predictor.Infer(c.Request.Context(), model, disease.Type(diseaseType), features)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// isEmptyValue reports whether a decoded JSON value counts as absent:
// null, false, zero, or an empty string, array or object.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func invalidDiseaseMessage(diseaseType string) string {
	return fmt.Sprintf("Invalid disease_type: %s. Must be one of: %s", diseaseType, disease.ValidSet())
}

// statusFor maps an error kind to its HTTP status and response message.
func statusFor(err error) (int, string) {
	switch ml.KindOf(err) {
	case ml.ErrInvalidArgument, ml.ErrValidation:
		return http.StatusBadRequest, err.Error()
	case ml.ErrNotFound:
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, fmt.Sprintf("%s: %s", common.ErrMsgPredictionFailed, err.Error())
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", c.GetString(common.RequestIDContextKey)).Msg("request failed")
	}
	abortWithError(c, status, msg)
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
