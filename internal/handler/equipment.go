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

type EquipmentHandler struct {
	equipment *service.EquipmentService
}

func NewEquipmentHandler(equipment *service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment}
}

type startUsageRequest struct {
	PartyID       uuid.UUID `json:"party_id"`
	VehicleTypeID uuid.UUID `json:"vehicle_type_id"`
	WorkTypeID    uuid.UUID `json:"work_type_id"`
	VehicleNumber string    `json:"vehicle_number"`
	ContractType  string    `json:"contract_type"`
	StartedAt     time.Time `json:"started_at"`
	Comments      *string   `json:"comments"`
}

func (r startUsageRequest) Validate() []FieldError {
	var errs []FieldError
	if r.PartyID == uuid.Nil {
		errs = append(errs, FieldError{Field: "party_id", Message: "required"})
	}
	if r.VehicleTypeID == uuid.Nil {
		errs = append(errs, FieldError{Field: "vehicle_type_id", Message: "required"})
	}
	if r.WorkTypeID == uuid.Nil {
		errs = append(errs, FieldError{Field: "work_type_id", Message: "required"})
	}
	if r.VehicleNumber == "" {
		errs = append(errs, FieldError{Field: "vehicle_number", Message: "required"})
	}
	if !domain.ContractType(r.ContractType).IsValid() {
		errs = append(errs, FieldError{Field: "contract_type", Message: "must be one of fixed, shift, tonnes, hours"})
	}
	return errs
}

type usageDTO struct {
	ID            uuid.UUID        `json:"id"`
	PartyID       uuid.UUID        `json:"party_id"`
	VehicleTypeID uuid.UUID        `json:"vehicle_type_id"`
	WorkTypeID    uuid.UUID        `json:"work_type_id"`
	VehicleNumber string           `json:"vehicle_number"`
	ContractType  string           `json:"contract_type"`
	StartedAt     time.Time        `json:"started_at"`
	EndedAt       *time.Time       `json:"ended_at"`
	Quantity      *decimal.Decimal `json:"quantity"`
	Rate          *decimal.Decimal `json:"rate"`
	TotalCost     *decimal.Decimal `json:"total_cost"`
	Comments      *string          `json:"comments"`
	Status        string           `json:"status"`
}

func toUsageDTO(u *domain.UsageRecord) usageDTO {
	return usageDTO{
		ID:            u.ID,
		PartyID:       u.PartyID,
		VehicleTypeID: u.VehicleTypeID,
		WorkTypeID:    u.WorkTypeID,
		VehicleNumber: u.VehicleNumber,
		ContractType:  string(u.ContractType),
		StartedAt:     u.StartedAt,
		EndedAt:       u.EndedAt,
		Quantity:      u.Quantity,
		Rate:          u.Rate,
		TotalCost:     u.TotalCost,
		Comments:      u.Comments,
		Status:        string(u.Status),
	}
}

func (h *EquipmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req startUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	record, err := h.equipment.Start(r.Context(), actor, service.StartUsageRequest{
		PartyID:       req.PartyID,
		VehicleTypeID: req.VehicleTypeID,
		WorkTypeID:    req.WorkTypeID,
		VehicleNumber: req.VehicleNumber,
		ContractType:  domain.ContractType(req.ContractType),
		StartedAt:     req.StartedAt,
		Comments:      req.Comments,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toUsageDTO(record))
}

type closeUsageRequest struct {
	EndedAt  time.Time        `json:"ended_at"`
	Quantity *decimal.Decimal `json:"quantity"`
	Comments *string          `json:"comments"`
}

func (h *EquipmentHandler) Close(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req closeUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	record, err := h.equipment.Close(r.Context(), actor, id, service.CloseUsageRequest{
		EndedAt:  req.EndedAt,
		Quantity: req.Quantity,
		Comments: req.Comments,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toUsageDTO(record))
}

func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	record, err := h.equipment.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toUsageDTO(record))
}

func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var filter repository.UsageFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.UsageStatus(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("party_id"); raw != "" {
		partyID, err := uuid.Parse(raw)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "party_id", Message: "must be a UUID"}})
			return
		}
		filter.PartyID = &partyID
	}

	records, err := h.equipment.List(r.Context(), filter)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]usageDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, toUsageDTO(&records[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type createRateRuleRequest struct {
	PartyID       uuid.UUID       `json:"party_id"`
	VehicleTypeID uuid.UUID       `json:"vehicle_type_id"`
	WorkTypeID    uuid.UUID       `json:"work_type_id"`
	ContractType  string          `json:"contract_type"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveFrom string          `json:"effective_from"`
}

func (h *EquipmentHandler) CreateRateRule(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req createRateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "effective_from", Message: "must be YYYY-MM-DD"}})
		return
	}

	rule, err := h.equipment.CreateRateRule(r.Context(), actor, service.CreateRateRuleRequest{
		PartyID:       req.PartyID,
		VehicleTypeID: req.VehicleTypeID,
		WorkTypeID:    req.WorkTypeID,
		ContractType:  domain.ContractType(req.ContractType),
		Rate:          req.Rate,
		EffectiveFrom: effectiveFrom,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, rateRuleDTO{
		ID:            rule.ID,
		PartyID:       rule.PartyID,
		VehicleTypeID: rule.VehicleTypeID,
		WorkTypeID:    rule.WorkTypeID,
		ContractType:  string(rule.ContractType),
		Rate:          rule.Rate,
		EffectiveFrom: rule.EffectiveFrom.Format("2006-01-02"),
		Active:        rule.Active,
	})
}

type rateRuleDTO struct {
	ID            uuid.UUID       `json:"id"`
	PartyID       uuid.UUID       `json:"party_id"`
	VehicleTypeID uuid.UUID       `json:"vehicle_type_id"`
	WorkTypeID    uuid.UUID       `json:"work_type_id"`
	ContractType  string          `json:"contract_type"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveFrom string          `json:"effective_from"`
	Active        bool            `json:"active"`
}

func (h *EquipmentHandler) DeactivateRateRule(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.equipment.DeactivateRateRule(r.Context(), actor, id); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"id": id, "active": false})
}

func (h *EquipmentHandler) ListRateRules(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	partyID, err := uuid.Parse(r.URL.Query().Get("party_id"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "party_id", Message: "must be a UUID"}})
		return
	}

	rules, err := h.equipment.ListRateRules(r.Context(), partyID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]rateRuleDTO, 0, len(rules))
	for _, rule := range rules {
		dtos = append(dtos, rateRuleDTO{
			ID:            rule.ID,
			PartyID:       rule.PartyID,
			VehicleTypeID: rule.VehicleTypeID,
			WorkTypeID:    rule.WorkTypeID,
			ContractType:  string(rule.ContractType),
			Rate:          rule.Rate,
			EffectiveFrom: rule.EffectiveFrom.Format("2006-01-02"),
			Active:        rule.Active,
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
