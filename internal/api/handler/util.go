package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ayo6706/transfer-saga/internal/api/middleware"
	"github.com/ayo6706/transfer-saga/internal/api/problem"
	"github.com/ayo6706/transfer-saga/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", service.ErrBadRequest, err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", service.ErrBadRequest, name)
	}
	return id, nil
}

// respondServiceError maps facade errors onto problem responses.
func respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrBadRequest):
		RespondError(w, r, http.StatusBadRequest, problem.InvalidRequest, err.Error())
	case errors.Is(err, service.ErrAccountAlreadyExists):
		RespondError(w, r, http.StatusConflict, problem.AccountAlreadyExists, err.Error())
	case errors.Is(err, service.ErrTransferAlreadyExists):
		RespondError(w, r, http.StatusConflict, problem.TransferAlreadyExists, err.Error())
	case errors.Is(err, service.ErrTransferIsBeingCreated):
		RespondError(w, r, http.StatusConflict, problem.TransferBeingCreated, err.Error())
	case errors.Is(err, service.ErrAccountNotFound):
		RespondError(w, r, http.StatusNotFound, problem.AccountNotFound, err.Error())
	case errors.Is(err, service.ErrTransferNotFound):
		RespondError(w, r, http.StatusNotFound, problem.TransferNotFound, err.Error())
	case errors.Is(err, service.ErrRequestTimeout):
		zap.L().Warn(op+" timed out", zap.Error(err), zap.String("trace_id", middleware.TraceIDFromContext(r.Context())))
		RespondError(w, r, http.StatusGatewayTimeout, problem.RequestTimeout, err.Error())
	default:
		zap.L().Error(op+" failed", zap.Error(err), zap.String("trace_id", middleware.TraceIDFromContext(r.Context())))
		RespondError(w, r, http.StatusInternalServerError, problem.Internal, "unexpected server error")
	}
}
