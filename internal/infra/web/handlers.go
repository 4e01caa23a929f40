package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"farcaster-attestation-frame/internal/domain"
	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/infra/logging"
	"farcaster-attestation-frame/internal/infra/metrics"

	"github.com/go-chi/chi/v5"
)

type submitRequest struct {
	UserFID int64 `json:"userFid"`
}

type paymentRequest struct {
	TxHash string `json:"txHash"`
}

func (s *Server) entryHandler(w http.ResponseWriter, r *http.Request) {
	view := s.submitUC.Entry(r.Context())
	metrics.IncPoll("frames", string(view.Stage))
	writeInfoView(w, http.StatusOK, view)
}

func (s *Server) submitHandler(w http.ResponseWriter, r *http.Request) {
	castHash := chi.URLParam(r, "castHash")
	if castHash == "" {
		writeErrorView(w, http.StatusBadRequest, "Missing cast hash", "")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserFID == 0 {
		writeErrorView(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	ctx := logging.WithUserFID(logging.WithCastHash(r.Context(), castHash), req.UserFID)
	view, err := s.submitUC.Submit(ctx, castHash, req.UserFID)
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}
	writeInfoView(w, http.StatusOK, view)
}

func (s *Server) validationStatusHandler(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	ctx := logging.WithJobID(r.Context(), jobID)

	view, err := s.statusUC.ValidationStatus(ctx, jobID)
	if err != nil {
		s.renderError(w, r, err, jobID)
		return
	}
	metrics.IncPoll("validations", string(view.Stage))
	writeInfoView(w, http.StatusOK, view)
}

func (s *Server) jobStatusHandler(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	ctx := logging.WithJobID(r.Context(), jobID)

	view, err := s.statusUC.JobStatus(ctx, jobID)
	if err != nil {
		s.renderError(w, r, err, jobID)
		return
	}
	metrics.IncPoll("jobs", string(view.Stage))
	writeInfoView(w, http.StatusOK, view)
}

func (s *Server) transactionHandler(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	ctx := logging.WithJobID(r.Context(), jobID)

	desc, err := s.paymentUC.Descriptor(ctx, jobID)
	if err != nil {
		s.renderError(w, r, err, jobID)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(desc)
}

func (s *Server) paymentHandler(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TxHash == "" {
		writeErrorView(w, http.StatusBadRequest, "Invalid request body", jobID)
		return
	}

	ctx := logging.WithJobID(r.Context(), jobID)
	view, err := s.paymentUC.SubmitPayment(ctx, jobID, req.TxHash)
	if err != nil {
		s.renderError(w, r, err, jobID)
		return
	}
	if view.Stage == model.StagePaid {
		metrics.IncPayment(string(model.PaymentStatusConfirmed))
	} else {
		metrics.IncPayment(string(model.PaymentStatusPending))
	}
	writeInfoView(w, http.StatusOK, view)
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	ctx := logging.WithJobID(r.Context(), jobID)

	if err := s.statusUC.Reset(ctx, jobID); err != nil {
		s.renderError(w, r, err, jobID)
		return
	}
	writeInfoView(w, http.StatusOK, s.submitUC.Entry(ctx))
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error, jobID string) {
	switch {
	case errors.Is(err, domain.ErrNoReply), errors.Is(err, domain.ErrReplyNotSelfAuthored):
		writeErrorView(w, http.StatusBadRequest, "Please reply to this cast first", jobID)
	case errors.Is(err, domain.ErrPaymentPending):
		writeErrorView(w, http.StatusBadRequest, "Image validation has not passed yet", jobID)
	case errors.Is(err, domain.ErrPaymentNotFound), errors.Is(err, domain.ErrNotFound):
		writeErrorView(w, http.StatusNotFound, "Not found", jobID)
	default:
		log := logging.With(r.Context(), s.log)
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeErrorView(w, http.StatusInternalServerError, "Something went wrong, please try again", jobID)
	}
}

func writeInfoView(w http.ResponseWriter, status int, view model.InfoView) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(view)
}

func writeErrorView(w http.ResponseWriter, status int, message, jobID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorView{
		Message:     message,
		ResetAction: model.NewResetAction(jobID),
	})
}
