package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/jonathan/skill-recommender/internal/recommender"
)

// handleRecommend serves one item kind for one user.
func (s *Server) handleRecommend(rec *recommender.Recommender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.PathValue("user_id"), 10, 64)
		if err != nil || userID < 0 {
			s.writeError(w, r, &ErrValidation{Field: "user_id", Message: "must be a non-negative integer"})
			return
		}

		// Fail fast before calling upstream.
		if _, err := rec.Snapshot(); err != nil {
			s.writeError(w, r, err)
			return
		}

		bundle, err := s.deps.Bundles.UserBundle(r.Context(), userID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if bundle.IsEmpty() {
			s.writeError(w, r, &ErrUserNotFound{UserID: userID})
			return
		}

		res, err := rec.RecommendFor(bundle, s.tuning.Lambda, s.tuning.TopN)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		zerolog.Ctx(r.Context()).Debug().
			Int64("user_id", userID).
			Str("kind", rec.Kind().String()).
			Uint64("generation", res.Snapshot.Generation()).
			Int("candidates", len(res.Recommendations)).
			Msg("recommendations computed")

		s.jsonResponse(w, r, http.StatusOK, res.Response(userID, bundle, s.tuning.ResponseLimit))
	}
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string               `json:"status"`
	Models  []recommender.Status `json:"models"`
	Breaker string               `json:"breaker,omitempty"`
}

func (s *Server) health() HealthResponse {
	resp := HealthResponse{
		Status: "ok",
		Models: []recommender.Status{s.deps.Certificates.Status(), s.deps.Positions.Status()},
	}
	for _, m := range resp.Models {
		if !m.Trained {
			resp.Status = "degraded"
		}
	}
	if s.deps.BreakerState != nil {
		resp.Breaker = s.deps.BreakerState()
	}
	return resp
}

// handleHealth returns server and model health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, r, http.StatusOK, s.health())
}

// handleRetrain reloads both catalogs and retrains. A kind that fails keeps
// serving its previous snapshot.
func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	if !s.retrainMu.TryLock() {
		s.errorResponse(w, r, http.StatusConflict, "Retrain already in progress")
		return
	}
	defer s.retrainMu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), retrainTimeout)
	defer cancel()

	logger := zerolog.Ctx(r.Context())
	logger.Info().Msg("retrain requested")
	err := recommender.Refresh(ctx, s.deps.Catalogs, true, s.deps.Certificates, s.deps.Positions)

	resp := s.health()
	if err != nil {
		logger.Error().Err(err).Msg("retrain failed")
		s.jsonResponse(w, r, http.StatusInternalServerError, map[string]any{
			"error":  "Retrain failed",
			"detail": err.Error(),
			"models": resp.Models,
		})
		return
	}
	s.jsonResponse(w, r, http.StatusOK, resp)
}
