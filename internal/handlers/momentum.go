package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/benvon/social-momentum/internal/logger"
	"github.com/benvon/social-momentum/internal/models"
	"github.com/benvon/social-momentum/internal/queue"
	"github.com/benvon/social-momentum/internal/request"
	"github.com/benvon/social-momentum/internal/services/momentum"
	"github.com/benvon/social-momentum/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MomentumService is the agent surface used by the HTTP layer
type MomentumService interface {
	Execute(ctx context.Context, userID uuid.UUID) (*models.AINudge, error)
	GetUserNudges(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AINudge, error)
	MarkNudgeRead(ctx context.Context, userID, nudgeID uuid.UUID) (*models.AINudge, error)
	DismissNudge(ctx context.Context, userID, nudgeID uuid.UUID) (*models.AINudge, error)
	GetAgentSummary(ctx context.Context, userID uuid.UUID) (*momentum.Summary, error)
}

// JobEnqueuer accepts asynchronous run jobs
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// MomentumHandler serves the agent endpoints under /users/{userID}
type MomentumHandler struct {
	service MomentumService
	jobs    JobEnqueuer
	logger  *zap.Logger
}

// NewMomentumHandler creates a handler. jobs may be nil, in which case async
// runs answer 503.
func NewMomentumHandler(service MomentumService, jobs JobEnqueuer, log *zap.Logger) *MomentumHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &MomentumHandler{service: service, jobs: jobs, logger: log}
}

// RegisterRoutes registers the read and acknowledge routes. The router should
// already carry the /users/{userID} prefix. The run route is registered
// separately so it can carry its own rate limit.
func (h *MomentumHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/nudges", h.ListNudges).Methods(http.MethodGet)
	r.HandleFunc("/nudges/{nudgeID}/read", h.MarkRead).Methods(http.MethodPost)
	r.HandleFunc("/nudges/{nudgeID}/dismiss", h.Dismiss).Methods(http.MethodPost)
	r.HandleFunc("/momentum/summary", h.Summary).Methods(http.MethodGet)
}

// RunResponse carries the nudge of a synchronous run; Nudge is null when the
// agent decided not to nudge.
type RunResponse struct {
	Nudge *models.AINudge `json:"nudge"`
}

// RunQueuedResponse acknowledges an asynchronous run
type RunQueuedResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

type listNudgesQuery struct {
	Limit int `validate:"min=0,max=100"`
}

// Run executes the agent for the user, or queues it with ?async=true
func (h *MomentumHandler) Run(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		h.enqueueRun(w, r, userID)
		return
	}

	nudge, err := h.service.Execute(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to run agent")
		return
	}
	respondJSON(w, http.StatusOK, RunResponse{Nudge: nudge})
}

func (h *MomentumHandler) enqueueRun(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	if h.jobs == nil {
		respondError(w, http.StatusServiceUnavailable, "Job queue is not configured")
		return
	}

	job := queue.NewJob(queue.JobTypeMomentumRun, userID)
	job.Metadata["source"] = "api"
	if err := h.jobs.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("momentum_run_enqueue_failed", logger.UserID(userID), logger.Error(err))
		respondError(w, http.StatusServiceUnavailable, "Failed to queue agent run")
		return
	}
	respondJSON(w, http.StatusAccepted, RunQueuedResponse{JobID: job.ID, Status: "queued"})
}

// ListNudges returns the user's nudges, newest first
func (h *MomentumHandler) ListNudges(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}

	var q listNudgesQuery
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		q.Limit = limit
	}
	if err := validation.Validate.Struct(q); err != nil {
		respondError(w, http.StatusBadRequest, "limit must be between 0 and 100")
		return
	}

	nudges, err := h.service.GetUserNudges(r.Context(), userID, q.Limit)
	if err != nil {
		h.respondServiceError(w, err, "Failed to retrieve nudges")
		return
	}
	if nudges == nil {
		nudges = []*models.AINudge{}
	}
	respondJSON(w, http.StatusOK, nudges)
}

// MarkRead flags a nudge as read
func (h *MomentumHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.nudgeAction(w, r, h.service.MarkNudgeRead, "Failed to mark nudge read")
}

// Dismiss hides a nudge
func (h *MomentumHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.nudgeAction(w, r, h.service.DismissNudge, "Failed to dismiss nudge")
}

func (h *MomentumHandler) nudgeAction(w http.ResponseWriter, r *http.Request, action func(context.Context, uuid.UUID, uuid.UUID) (*models.AINudge, error), failure string) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}
	nudgeID, ok := h.pathUUID(w, r, "nudgeID")
	if !ok {
		return
	}

	nudge, err := action(r.Context(), userID, nudgeID)
	if err != nil {
		h.respondServiceError(w, err, failure)
		return
	}
	respondJSON(w, http.StatusOK, nudge)
}

// Summary returns score, memory and activity for the user
func (h *MomentumHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}

	summary, err := h.service.GetAgentSummary(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to load summary")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *MomentumHandler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := request.PathUUID(r, name)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func (h *MomentumHandler) respondServiceError(w http.ResponseWriter, err error, failure string) {
	switch {
	case errors.Is(err, momentum.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, momentum.ErrNudgeNotFound):
		respondError(w, http.StatusNotFound, "Nudge not found")
	default:
		h.logger.Error("momentum_request_failed", zap.String("failure", failure), logger.Error(err))
		respondError(w, http.StatusInternalServerError, failure)
	}
}
