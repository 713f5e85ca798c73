package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seaboard-ops/port-finance/internal/auth"
	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/repository"
	"github.com/seaboard-ops/port-finance/internal/service/expense"
)

type ExpenseHandler struct {
	expenses *expense.Service
}

func NewExpenseHandler(expenses *expense.Service) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

type submitExpenseRequest struct {
	OccurredAt    time.Time       `json:"occurred_at"`
	Vehicle       string          `json:"vehicle"`
	VehicleNumber string          `json:"vehicle_number"`
	Gate          string          `json:"gate"`
	Direction     string          `json:"direction"`
	Description   string          `json:"description"`
	// Gate charges are pointers so an omitted charge can fall back to the
	// configured default while an explicit zero stays zero.
	CISFAmount    *decimal.Decimal `json:"cisf_amount"`
	KPTAmount     *decimal.Decimal `json:"kpt_amount"`
	CustomsAmount *decimal.Decimal `json:"customs_amount"`
	RoadTaxDays   int              `json:"road_tax_days"`
	OtherCharges  decimal.Decimal  `json:"other_charges"`
}

func (r submitExpenseRequest) Validate() []FieldError {
	var errs []FieldError
	if r.OccurredAt.IsZero() {
		errs = append(errs, FieldError{Field: "occurred_at", Message: "required"})
	}
	if r.Vehicle == "" {
		errs = append(errs, FieldError{Field: "vehicle", Message: "required"})
	}
	if r.VehicleNumber == "" {
		errs = append(errs, FieldError{Field: "vehicle_number", Message: "required"})
	}
	if r.Gate == "" {
		errs = append(errs, FieldError{Field: "gate", Message: "required"})
	}
	if r.Direction != string(domain.GateIn) && r.Direction != string(domain.GateOut) {
		errs = append(errs, FieldError{Field: "direction", Message: "must be in or out"})
	}
	if r.RoadTaxDays < 0 {
		errs = append(errs, FieldError{Field: "road_tax_days", Message: "must not be negative"})
	}
	return errs
}

type expenseDTO struct {
	ID             uuid.UUID       `json:"id"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	OccurredAt     time.Time       `json:"occurred_at"`
	Vehicle        string          `json:"vehicle"`
	VehicleNumber  string          `json:"vehicle_number"`
	Gate           string          `json:"gate"`
	Direction      string          `json:"direction"`
	Description    string          `json:"description"`
	CISFAmount     decimal.Decimal `json:"cisf_amount"`
	KPTAmount      decimal.Decimal `json:"kpt_amount"`
	CustomsAmount  decimal.Decimal `json:"customs_amount"`
	RoadTaxDays    int             `json:"road_tax_days"`
	RoadTaxAmount  decimal.Decimal `json:"road_tax_amount"`
	OtherCharges   decimal.Decimal `json:"other_charges"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Status         string          `json:"status"`
	ReviewedBy     *uuid.UUID      `json:"reviewed_by"`
	FinalizedBy    *uuid.UUID      `json:"finalized_by"`
	ReviewComments *string         `json:"review_comments"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toExpenseDTO(e *domain.Expense) expenseDTO {
	return expenseDTO{
		ID:             e.ID,
		OwnerID:        e.OwnerID,
		OccurredAt:     e.OccurredAt,
		Vehicle:        e.Vehicle,
		VehicleNumber:  e.VehicleNumber,
		Gate:           e.Gate,
		Direction:      string(e.Direction),
		Description:    e.Description,
		CISFAmount:     e.CISFAmount,
		KPTAmount:      e.KPTAmount,
		CustomsAmount:  e.CustomsAmount,
		RoadTaxDays:    e.RoadTaxDays,
		RoadTaxAmount:  e.RoadTaxAmount,
		OtherCharges:   e.OtherCharges,
		TotalAmount:    e.TotalAmount,
		Status:         string(e.Status),
		ReviewedBy:     e.ReviewedBy,
		FinalizedBy:    e.FinalizedBy,
		ReviewComments: e.ReviewComments,
		CreatedAt:      e.CreatedAt,
	}
}

func (h *ExpenseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req submitExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	exp, err := h.expenses.Submit(r.Context(), actor, expense.SubmitRequest{
		OccurredAt:    req.OccurredAt,
		Vehicle:       req.Vehicle,
		VehicleNumber: req.VehicleNumber,
		Gate:          req.Gate,
		Direction:     domain.GateDirection(req.Direction),
		Description:   req.Description,
		CISFAmount:    req.CISFAmount,
		KPTAmount:     req.KPTAmount,
		CustomsAmount: req.CustomsAmount,
		RoadTaxDays:   req.RoadTaxDays,
		OtherCharges:  req.OtherCharges,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toExpenseDTO(exp))
}

func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	exp, err := h.expenses.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if exp.OwnerID != actor.ID && !actor.Role.Can(domain.CapViewAnyWallet) {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}
	RespondSuccess(w, http.StatusOK, toExpenseDTO(exp))
}

func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var filter repository.ExpenseFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.ExpenseStatus(raw)
		filter.Status = &status
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

	expenses, err := h.expenses.List(r.Context(), actor, filter)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]expenseDTO, 0, len(expenses))
	for i := range expenses {
		dtos = append(dtos, toExpenseDTO(&expenses[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type reviewRequest struct {
	Comments *string `json:"comments"`
}

func (h *ExpenseHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.expenses.Approve)
}

func (h *ExpenseHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.expenses.Reject)
}

func (h *ExpenseHandler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, actor *auth.Actor, id uuid.UUID, comments *string) (*domain.Expense, error)) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req reviewRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	exp, err := apply(r.Context(), actor, id, req.Comments)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toExpenseDTO(exp))
}

func (h *ExpenseHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	exp, err := h.expenses.Finalize(r.Context(), actor, id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toExpenseDTO(exp))
}

type bulkIDsRequest struct {
	IDs      []uuid.UUID `json:"ids"`
	Comments *string     `json:"comments"`
}

type bulkItemResult struct {
	ID      uuid.UUID   `json:"id"`
	Success bool        `json:"success"`
	Error   *APIError   `json:"error,omitempty"`
	Expense *expenseDTO `json:"expense,omitempty"`
}

func (h *ExpenseHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req bulkIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	results := h.expenses.BulkApprove(r.Context(), actor, req.IDs, req.Comments)
	RespondSuccess(w, http.StatusOK, toBulkResults(results))
}

func (h *ExpenseHandler) BulkFinalize(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req bulkIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	results := h.expenses.BulkFinalize(r.Context(), actor, req.IDs)
	RespondSuccess(w, http.StatusOK, toBulkResults(results))
}

func toBulkResults(results []expense.BulkResult) []bulkItemResult {
	out := make([]bulkItemResult, 0, len(results))
	for _, res := range results {
		item := bulkItemResult{ID: res.ID, Success: res.Err == nil}
		if res.Err != nil {
			item.Error = &APIError{Code: "TRANSITION_FAILED", Message: res.Err.Error()}
		} else if res.Expense != nil {
			dto := toExpenseDTO(res.Expense)
			item.Expense = &dto
		}
		out = append(out, item)
	}
	return out
}
