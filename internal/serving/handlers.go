package serving

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/scoring"
)

func (s *Server) health(c *gin.Context) {
	respondOK(c, HealthResponse{Status: "ok", ModelID: s.modelID})
}

func (s *Server) predict(c *gin.Context) {
	start := time.Now()

	var rec domain.FeatureRecord
	if err := decodeStrict(c.Request.Body, &rec); err != nil {
		s.m.RecordPrediction(EndpointPredict, start, err)
		respondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}

	probs, err := s.score([]domain.FeatureRecord{rec})
	s.m.RecordPrediction(EndpointPredict, start, err)
	if err != nil {
		s.log.Error("predict failed", "error", err)
		respondError(c, http.StatusInternalServerError, CodeInternal, err)
		return
	}
	respondOK(c, PredictResponse{Probability: probs[0]})
}

func (s *Server) predictBatch(c *gin.Context) {
	start := time.Now()

	var recs []domain.FeatureRecord
	err := decodeStrict(c.Request.Body, &recs)
	if err == nil && recs == nil {
		err = errors.New("expected a JSON array of feature records")
	}
	if err != nil {
		s.m.RecordPrediction(EndpointBatch, start, err)
		respondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}

	probs, err := s.score(recs)
	s.m.RecordPrediction(EndpointBatch, start, err)
	if err != nil {
		s.log.Error("batch predict failed", "error", err, "records", len(recs))
		respondError(c, http.StatusInternalServerError, CodeInternal, err)
		return
	}
	respondOK(c, BatchPredictResponse{Probabilities: probs})
}

// score predicts each record in order; absent values score as 0.
func (s *Server) score(recs []domain.FeatureRecord) ([]float64, error) {
	if len(recs) == 0 {
		return []float64{}, nil
	}
	rows := make([][]float64, len(recs))
	for i, r := range recs {
		rows[i] = r.Vector()
	}
	probs, err := s.predictor.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	if err := scoring.CheckProbabilities(probs, len(rows)); err != nil {
		return nil, err
	}
	return probs, nil
}
