package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/service"
)

type WalletHandler struct {
	ledger *service.LedgerService
}

func NewWalletHandler(ledger *service.LedgerService) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

// resolveOwner decides whose wallet the request addresses. Callers without
// the view-any capability are pinned to their own.
func (h *WalletHandler) resolveOwner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return uuid.Nil, false
	}

	raw := r.URL.Query().Get("owner_id")
	if raw == "" {
		return actor.ID, true
	}
	ownerID, err := uuid.Parse(raw)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "owner_id", Message: "must be a UUID"}})
		return uuid.Nil, false
	}
	if ownerID != actor.ID && !actor.Role.Can(domain.CapViewAnyWallet) {
		RespondAppError(w, ErrPermissionDenied, nil)
		return uuid.Nil, false
	}
	return ownerID, true
}

type balanceResponse struct {
	OwnerID uuid.UUID       `json:"owner_id"`
	Balance decimal.Decimal `json:"balance"`
}

func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.resolveOwner(w, r)
	if !ok {
		return
	}

	balance, err := h.ledger.GetBalance(r.Context(), ownerID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, balanceResponse{OwnerID: ownerID, Balance: balance})
}

type ledgerEntryDTO struct {
	ID           uuid.UUID       `json:"id"`
	Direction    string          `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	SourceKind   string          `json:"source_kind"`
	SourceRef    *string         `json:"source_ref"`
	Description  *string         `json:"description"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	PostedAt     string          `json:"posted_at"`
}

func toLedgerEntryDTO(e domain.LedgerEntry) ledgerEntryDTO {
	return ledgerEntryDTO{
		ID:           e.ID,
		Direction:    string(e.Direction),
		Amount:       e.Amount,
		SourceKind:   string(e.SourceKind),
		SourceRef:    e.SourceRef,
		Description:  e.Description,
		BalanceAfter: e.BalanceAfter,
		PostedAt:     e.PostedAt.Format(time.RFC3339),
	}
}

type historyResponse struct {
	Entries []ledgerEntryDTO `json:"entries"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

func (h *WalletHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.resolveOwner(w, r)
	if !ok {
		return
	}

	limit := 50
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}

	from, err := queryTime(r, "from")
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "from", Message: "must be RFC 3339"}})
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "to", Message: "must be RFC 3339"}})
		return
	}

	if from != nil && to != nil {
		entries, err := h.ledger.HistoryRange(r.Context(), ownerID, *from, *to)
		if err != nil {
			RespondDomainError(w, err)
			return
		}
		dtos := make([]ledgerEntryDTO, 0, len(entries))
		for _, e := range entries {
			dtos = append(dtos, toLedgerEntryDTO(e))
		}
		RespondSuccess(w, http.StatusOK, historyResponse{Entries: dtos, Total: len(dtos), Limit: len(dtos), Offset: 0})
		return
	}

	entries, total, err := h.ledger.History(r.Context(), ownerID, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]ledgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toLedgerEntryDTO(e))
	}
	RespondSuccess(w, http.StatusOK, historyResponse{Entries: dtos, Total: total, Limit: limit, Offset: offset})
}

type topUpRequest struct {
	OwnerID         uuid.UUID       `json:"owner_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	ReferenceNumber *string         `json:"reference_number"`
	Remarks         *string         `json:"remarks"`
}

func (r topUpRequest) Validate() []FieldError {
	var errs []FieldError
	if r.OwnerID == uuid.Nil {
		errs = append(errs, FieldError{Field: "owner_id", Message: "required"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	if !domain.PaymentMethod(r.PaymentMethod).IsValid() {
		errs = append(errs, FieldError{Field: "payment_method", Message: "must be one of imps, neft, cash, cheque, other"})
	}
	return errs
}

type topUpResponse struct {
	TopUpID uuid.UUID      `json:"topup_id"`
	Entry   ledgerEntryDTO `json:"entry"`
}

func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	topup, entry, err := h.ledger.TopUp(r.Context(), actor, service.TopUpRequest{
		OwnerID:         req.OwnerID,
		Amount:          req.Amount,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		ReferenceNumber: req.ReferenceNumber,
		Remarks:         req.Remarks,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, topUpResponse{
		TopUpID: topup.ID,
		Entry:   toLedgerEntryDTO(*entry),
	})
}
