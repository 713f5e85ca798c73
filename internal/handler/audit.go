package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/seaboard-ops/port-finance/internal/domain"
	"github.com/seaboard-ops/port-finance/internal/service"
)

type AuditHandler struct {
	audit *service.AuditService
}

func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

type auditLogDTO struct {
	ID          uuid.UUID       `json:"id"`
	SubjectType string          `json:"subject_type"`
	SubjectID   string          `json:"subject_id"`
	Action      string          `json:"action"`
	ActorID     *uuid.UUID      `json:"actor_id"`
	Changes     json.RawMessage `json:"changes"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

func (h *AuditHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.Role.Can(domain.CapViewReports) {
		RespondAppError(w, ErrPermissionDenied, nil)
		return
	}

	subjectType := chi.URLParam(r, "subjectType")
	subjectID := chi.URLParam(r, "subjectID")
	if subjectType == "" || subjectID == "" {
		RespondValidationError(w, []FieldError{{Field: "subject", Message: "subject type and id required"}})
		return
	}

	logs, err := h.audit.History(r.Context(), subjectType, subjectID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]auditLogDTO, 0, len(logs))
	for _, a := range logs {
		dtos = append(dtos, auditLogDTO{
			ID:          a.ID,
			SubjectType: a.SubjectType,
			SubjectID:   a.SubjectID,
			Action:      a.Action,
			ActorID:     a.ActorID,
			Changes:     a.Changes,
			RecordedAt:  a.RecordedAt,
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
