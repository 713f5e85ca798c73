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
	"github.com/seaboard-ops/port-finance/internal/service/voucher"
)

type VoucherHandler struct {
	vouchers *voucher.Service
}

func NewVoucherHandler(vouchers *voucher.Service) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers}
}

type submitVoucherRequest struct {
	OccurredAt  time.Time       `json:"occurred_at"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	DocumentRef string          `json:"document_ref"`
	Remarks     *string         `json:"remarks"`
}

func (r submitVoucherRequest) Validate() []FieldError {
	var errs []FieldError
	if r.OccurredAt.IsZero() {
		errs = append(errs, FieldError{Field: "occurred_at", Message: "required"})
	}
	if !domain.VoucherCategory(r.Category).IsValid() {
		errs = append(errs, FieldError{Field: "category", Message: "unknown category"})
	}
	if r.DocumentRef == "" {
		errs = append(errs, FieldError{Field: "document_ref", Message: "required"})
	}
	if r.Amount.IsNegative() {
		errs = append(errs, FieldError{Field: "amount", Message: "must not be negative"})
	}
	return errs
}

type voucherDTO struct {
	ID               uuid.UUID       `json:"id"`
	OwnerID          uuid.UUID       `json:"owner_id"`
	OccurredAt       time.Time       `json:"occurred_at"`
	Category         string          `json:"category"`
	Amount           decimal.Decimal `json:"amount"`
	DocumentRef      string          `json:"document_ref"`
	Remarks          *string         `json:"remarks"`
	Status           string          `json:"status"`
	ApprovedBy       *uuid.UUID      `json:"approved_by"`
	LoggedBy         *uuid.UUID      `json:"logged_by"`
	ApprovalComments *string         `json:"approval_comments"`
	TallyReference   *string         `json:"tally_reference"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toVoucherDTO(v *domain.Voucher) voucherDTO {
	return voucherDTO{
		ID:               v.ID,
		OwnerID:          v.OwnerID,
		OccurredAt:       v.OccurredAt,
		Category:         string(v.Category),
		Amount:           v.Amount,
		DocumentRef:      v.DocumentRef,
		Remarks:          v.Remarks,
		Status:           string(v.Status),
		ApprovedBy:       v.ApprovedBy,
		LoggedBy:         v.LoggedBy,
		ApprovalComments: v.ApprovalComments,
		TallyReference:   v.TallyReference,
		CreatedAt:        v.CreatedAt,
	}
}

func (h *VoucherHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req submitVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	v, err := h.vouchers.Submit(r.Context(), actor, voucher.SubmitRequest{
		OccurredAt:  req.OccurredAt,
		Category:    domain.VoucherCategory(req.Category),
		Amount:      req.Amount,
		DocumentRef: req.DocumentRef,
		Remarks:     req.Remarks,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toVoucherDTO(v))
}

func (h *VoucherHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	v, err := h.vouchers.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if v.OwnerID != actor.ID && !actor.Role.Can(domain.CapViewAnyWallet) {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}
	RespondSuccess(w, http.StatusOK, toVoucherDTO(v))
}

func (h *VoucherHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var filter repository.VoucherFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.VoucherStatus(raw)
		filter.Status = &status
	}

	vouchers, err := h.vouchers.List(r.Context(), actor, filter)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]voucherDTO, 0, len(vouchers))
	for i := range vouchers {
		dtos = append(dtos, toVoucherDTO(&vouchers[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *VoucherHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.vouchers.Approve)
}

func (h *VoucherHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.vouchers.Decline)
}

func (h *VoucherHandler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, actor *auth.Actor, id uuid.UUID, comments *string) (*domain.Voucher, error)) {
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

	v, err := apply(r.Context(), actor, id, req.Comments)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toVoucherDTO(v))
}

type logVoucherRequest struct {
	TallyReference string `json:"tally_reference"`
}

func (h *VoucherHandler) Log(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req logVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.TallyReference == "" {
		RespondValidationError(w, []FieldError{{Field: "tally_reference", Message: "required"}})
		return
	}

	v, err := h.vouchers.Log(r.Context(), actor, id, req.TallyReference)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toVoucherDTO(v))
}

func (h *VoucherHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req bulkIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	results := h.vouchers.BulkApprove(r.Context(), actor, req.IDs, req.Comments)
	RespondSuccess(w, http.StatusOK, toVoucherBulkResults(results))
}

type bulkLogRequest struct {
	Items []struct {
		ID             uuid.UUID `json:"id"`
		TallyReference string    `json:"tally_reference"`
	} `json:"items"`
}

func (h *VoucherHandler) BulkLog(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req bulkLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Items) == 0 {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	items := make([]voucher.BulkLogItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, voucher.BulkLogItem{ID: item.ID, TallyReference: item.TallyReference})
	}

	results := h.vouchers.BulkLog(r.Context(), actor, items)
	RespondSuccess(w, http.StatusOK, toVoucherBulkResults(results))
}

type voucherBulkItemResult struct {
	ID      uuid.UUID   `json:"id"`
	Success bool        `json:"success"`
	Error   *APIError   `json:"error,omitempty"`
	Voucher *voucherDTO `json:"voucher,omitempty"`
}

func toVoucherBulkResults(results []voucher.BulkResult) []voucherBulkItemResult {
	out := make([]voucherBulkItemResult, 0, len(results))
	for _, res := range results {
		item := voucherBulkItemResult{ID: res.ID, Success: res.Err == nil}
		if res.Err != nil {
			item.Error = &APIError{Code: "TRANSITION_FAILED", Message: res.Err.Error()}
		} else if res.Voucher != nil {
			dto := toVoucherDTO(res.Voucher)
			item.Voucher = &dto
		}
		out = append(out, item)
	}
	return out
}
