package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/repository"
	"github.com/seaboard-ops/port-finance/internal/service"
)

type TallyHandler struct {
	tally *service.TallyService
}

func NewTallyHandler(tally *service.TallyService) *TallyHandler {
	return &TallyHandler{tally: tally}
}

type tallyLogDTO struct {
	ID                 uuid.UUID       `json:"id"`
	EntryType          string          `json:"entry_type"`
	ReferenceID        string          `json:"reference_id"`
	TallyVoucherNumber string          `json:"tally_voucher_number"`
	Amount             decimal.Decimal `json:"amount"`
	Description        string          `json:"description"`
	LoggedBy           uuid.UUID       `json:"logged_by"`
	LoggedAt           time.Time       `json:"logged_at"`
}

func toTallyLogDTO(t domain.TallyLog) tallyLogDTO {
	return tallyLogDTO{
		ID:                 t.ID,
		EntryType:          string(t.EntryType),
		ReferenceID:        t.ReferenceID,
		TallyVoucherNumber: t.TallyVoucherNumber,
		Amount:             t.Amount,
		Description:        t.Description,
		LoggedBy:           t.LoggedBy,
		LoggedAt:           t.LoggedAt,
	}
}

func (h *TallyHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var filter repository.TallyFilter
	if raw := r.URL.Query().Get("entry_type"); raw != "" {
		entryType := domain.TallyEntryType(raw)
		if !entryType.IsValid() {
			RespondValidationError(w, []FieldError{{Field: "entry_type", Message: "unknown entry type"}})
			return
		}
		filter.EntryType = &entryType
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
	filter.From = from
	filter.To = to

	logs, err := h.tally.List(r.Context(), actor, filter)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]tallyLogDTO, 0, len(logs))
	for _, t := range logs {
		dtos = append(dtos, toTallyLogDTO(t))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type manualEntryRequest struct {
	EntryType          string          `json:"entry_type"`
	ReferenceID        string          `json:"reference_id"`
	TallyVoucherNumber string          `json:"tally_voucher_number"`
	Amount             decimal.Decimal `json:"amount"`
	Description        string          `json:"description"`
}

func (r manualEntryRequest) Validate() []FieldError {
	var errs []FieldError
	if r.EntryType != string(domain.TallyManual) && r.EntryType != string(domain.TallyRevenue) {
		errs = append(errs, FieldError{Field: "entry_type", Message: "must be manual or revenue"})
	}
	if r.TallyVoucherNumber == "" {
		errs = append(errs, FieldError{Field: "tally_voucher_number", Message: "required"})
	}
	return errs
}

func (h *TallyHandler) RecordManual(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req manualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entry, err := h.tally.RecordManual(r.Context(), actor, service.ManualEntryRequest{
		EntryType:          domain.TallyEntryType(req.EntryType),
		ReferenceID:        req.ReferenceID,
		TallyVoucherNumber: req.TallyVoucherNumber,
		Amount:             req.Amount,
		Description:        req.Description,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toTallyLogDTO(*entry))
}
