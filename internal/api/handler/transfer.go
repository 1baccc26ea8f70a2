package handler

import (
	"net/http"

	"github.com/ayo6706/transfer-saga/internal/models"
	"github.com/ayo6706/transfer-saga/internal/service"
)

type TransferHandler struct {
	svc *service.TransferService
}

func NewTransferHandler(svc *service.TransferService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

// MakeTransfer blocks until the transfer settles. A low balance is a 200 with status low_balance.
func (h *TransferHandler) MakeTransfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, "make transfer", err)
		return
	}

	transfer, err := h.svc.MakeTransfer(r.Context(), req.TransferID, req.SourceAccountID, req.TargetAccountID, req.Amount)
	if err != nil {
		respondServiceError(w, r, "make transfer", err)
		return
	}
	RespondJSON(w, http.StatusOK, models.TransferFromState(transfer))
}

func (h *TransferHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondServiceError(w, r, "retrieve transfer", err)
		return
	}

	transfer, err := h.svc.RetrieveTransfer(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, "retrieve transfer", err)
		return
	}
	RespondJSON(w, http.StatusOK, models.TransferFromState(transfer))
}
