package handler

import (
	"net/http"

	"github.com/ayo6706/transfer-saga/internal/models"
	"github.com/ayo6706/transfer-saga/internal/service"
)

type AccountHandler struct {
	svc *service.AccountService
}

func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// CreateAccount responds with the id of the new account.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, "create account", err)
		return
	}

	id, err := h.svc.CreateAccount(r.Context(), req.AccountID, req.Name)
	if err != nil {
		respondServiceError(w, r, "create account", err)
		return
	}
	RespondJSON(w, http.StatusOK, id)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondServiceError(w, r, "retrieve account", err)
		return
	}

	account, err := h.svc.RetrieveAccount(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, "retrieve account", err)
		return
	}
	RespondJSON(w, http.StatusOK, models.AccountFromState(account))
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondServiceError(w, r, "deposit", err)
		return
	}
	var req models.DepositRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, "deposit", err)
		return
	}

	transfer, err := h.svc.DepositMoney(r.Context(), req.TransferID, id, req.Amount)
	if err != nil {
		respondServiceError(w, r, "deposit", err)
		return
	}
	RespondJSON(w, http.StatusOK, models.DepositFromState(transfer))
}
