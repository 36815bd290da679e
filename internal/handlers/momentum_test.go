package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/benvon/social-momentum/internal/queue"
	"github.com/benvon/social-momentum/internal/services/momentum"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type mockService struct {
	nudge     *models.AINudge
	nudges    []*models.AINudge
	summary   *momentum.Summary
	err       error
	lastLimit int
}

func (m *mockService) Execute(ctx context.Context, userID uuid.UUID) (*models.AINudge, error) {
	return m.nudge, m.err
}

func (m *mockService) GetUserNudges(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AINudge, error) {
	m.lastLimit = limit
	return m.nudges, m.err
}

func (m *mockService) MarkNudgeRead(ctx context.Context, userID, nudgeID uuid.UUID) (*models.AINudge, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.AINudge{ID: nudgeID, UserID: userID, IsRead: true}, nil
}

func (m *mockService) DismissNudge(ctx context.Context, userID, nudgeID uuid.UUID) (*models.AINudge, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.AINudge{ID: nudgeID, UserID: userID, IsDismissed: true}, nil
}

func (m *mockService) GetAgentSummary(ctx context.Context, userID uuid.UUID) (*momentum.Summary, error) {
	return m.summary, m.err
}

type mockEnqueuer struct {
	jobs []*queue.Job
	err  error
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func newRouter(h *MomentumHandler) *mux.Router {
	r := mux.NewRouter()
	users := r.PathPrefix("/api/v1/users/{userID}").Subrouter()
	users.HandleFunc("/momentum/run", h.Run).Methods(http.MethodPost)
	h.RegisterRoutes(users)
	return r
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func serve(t *testing.T, h *MomentumHandler, method, target string) (int, testEnvelope) {
	t.Helper()
	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, httptest.NewRequest(method, target, nil))

	var body testEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return w.Code, body
}

func TestMomentumHandler_Run(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	nudge := &models.AINudge{ID: uuid.New(), UserID: userID, Message: "Welcome back!", Category: models.CategoryComebackWelcome, Priority: models.PriorityHigh, CreatedAt: time.Now()}

	tests := []struct {
		name       string
		service    *mockService
		path       string
		wantStatus int
		wantNudge  bool
	}{
		{name: "nudge generated", service: &mockService{nudge: nudge}, path: userID.String(), wantStatus: http.StatusOK, wantNudge: true},
		{name: "no nudge", service: &mockService{}, path: userID.String(), wantStatus: http.StatusOK},
		{name: "unknown user", service: &mockService{err: fmt.Errorf("%w: %s", momentum.ErrUserNotFound, userID)}, path: userID.String(), wantStatus: http.StatusNotFound},
		{name: "store failure", service: &mockService{err: errors.New("db down")}, path: userID.String(), wantStatus: http.StatusInternalServerError},
		{name: "bad user id", service: &mockService{}, path: "not-a-uuid", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewMomentumHandler(tt.service, nil, zap.NewNop())
			status, body := serve(t, h, http.MethodPost, "/api/v1/users/"+tt.path+"/momentum/run")

			if status != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d (%s)", tt.wantStatus, status, body.Message)
			}
			if status != http.StatusOK {
				if body.Success {
					t.Error("Expected success to be false")
				}
				return
			}

			var resp RunResponse
			if err := json.Unmarshal(body.Data, &resp); err != nil {
				t.Fatalf("Failed to decode data: %v", err)
			}
			if got := resp.Nudge != nil; got != tt.wantNudge {
				t.Errorf("Expected nudge present=%v, got %v", tt.wantNudge, got)
			}
			if tt.wantNudge && resp.Nudge.Message != nudge.Message {
				t.Errorf("Expected message %q, got %q", nudge.Message, resp.Nudge.Message)
			}
		})
	}
}

func TestMomentumHandler_RunAsync(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	target := "/api/v1/users/" + userID.String() + "/momentum/run?async=true"

	t.Run("queued", func(t *testing.T) {
		t.Parallel()

		jobs := &mockEnqueuer{}
		status, body := serve(t, NewMomentumHandler(&mockService{}, jobs, nil), http.MethodPost, target)
		if status != http.StatusAccepted {
			t.Fatalf("Expected 202, got %d", status)
		}
		if len(jobs.jobs) != 1 {
			t.Fatalf("Expected 1 queued job, got %d", len(jobs.jobs))
		}
		job := jobs.jobs[0]
		if job.Type != queue.JobTypeMomentumRun || job.UserID != userID {
			t.Errorf("Unexpected job %+v", job)
		}

		var resp RunQueuedResponse
		if err := json.Unmarshal(body.Data, &resp); err != nil {
			t.Fatalf("Failed to decode data: %v", err)
		}
		if resp.JobID != job.ID {
			t.Errorf("Expected job id %s, got %s", job.ID, resp.JobID)
		}
	})

	t.Run("no queue", func(t *testing.T) {
		t.Parallel()

		status, _ := serve(t, NewMomentumHandler(&mockService{}, nil, nil), http.MethodPost, target)
		if status != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", status)
		}
	})

	t.Run("enqueue failure", func(t *testing.T) {
		t.Parallel()

		jobs := &mockEnqueuer{err: errors.New("channel closed")}
		status, _ := serve(t, NewMomentumHandler(&mockService{}, jobs, nil), http.MethodPost, target)
		if status != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", status)
		}
	})
}

func TestMomentumHandler_ListNudges(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
	}{
		{name: "default limit", query: "", wantStatus: http.StatusOK, wantLimit: 0},
		{name: "explicit limit", query: "?limit=5", wantStatus: http.StatusOK, wantLimit: 5},
		{name: "max limit", query: "?limit=100", wantStatus: http.StatusOK, wantLimit: 100},
		{name: "over max", query: "?limit=101", wantStatus: http.StatusBadRequest},
		{name: "negative", query: "?limit=-1", wantStatus: http.StatusBadRequest},
		{name: "not a number", query: "?limit=ten", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockService{}
			status, body := serve(t, NewMomentumHandler(svc, nil, nil), http.MethodGet, "/api/v1/users/"+userID.String()+"/nudges"+tt.query)

			if status != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, status)
			}
			if status != http.StatusOK {
				return
			}
			if svc.lastLimit != tt.wantLimit {
				t.Errorf("Expected limit %d passed to service, got %d", tt.wantLimit, svc.lastLimit)
			}
			if string(body.Data) != "[]" {
				t.Errorf("Expected empty array for no nudges, got %s", body.Data)
			}
		})
	}
}

func TestMomentumHandler_NudgeActions(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	nudgeID := uuid.New()

	tests := []struct {
		name       string
		action     string
		err        error
		wantStatus int
		check      func(*testing.T, models.AINudge)
	}{
		{
			name:       "read",
			action:     "read",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, n models.AINudge) {
				if !n.IsRead {
					t.Error("Expected nudge to be read")
				}
			},
		},
		{
			name:       "dismiss",
			action:     "dismiss",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, n models.AINudge) {
				if !n.IsDismissed {
					t.Error("Expected nudge to be dismissed")
				}
			},
		},
		{name: "read missing nudge", action: "read", err: momentum.ErrNudgeNotFound, wantStatus: http.StatusNotFound},
		{name: "dismiss missing nudge", action: "dismiss", err: momentum.ErrNudgeNotFound, wantStatus: http.StatusNotFound},
		{name: "read store failure", action: "read", err: errors.New("timeout"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target := fmt.Sprintf("/api/v1/users/%s/nudges/%s/%s", userID, nudgeID, tt.action)
			status, body := serve(t, NewMomentumHandler(&mockService{err: tt.err}, nil, nil), http.MethodPost, target)

			if status != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, status)
			}
			if tt.check == nil {
				return
			}
			var n models.AINudge
			if err := json.Unmarshal(body.Data, &n); err != nil {
				t.Fatalf("Failed to decode data: %v", err)
			}
			if n.ID != nudgeID {
				t.Errorf("Expected nudge %s, got %s", nudgeID, n.ID)
			}
			tt.check(t, n)
		})
	}
}

func TestMomentumHandler_BadNudgeID(t *testing.T) {
	t.Parallel()

	status, _ := serve(t, NewMomentumHandler(&mockService{}, nil, nil), http.MethodPost, "/api/v1/users/"+uuid.NewString()+"/nudges/nope/read")
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", status)
	}
}

func TestMomentumHandler_Summary(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Now().UTC()
	summary := &momentum.Summary{
		UserID:   userID,
		Score:    &models.LonelinessScore{UserID: userID, Score: 50, Trend: models.TrendStable, PreviousScore: 50, ComputedAt: now},
		Memory:   models.NewAgentMemory(userID, now),
		Activity: &models.UserActivity{UserID: userID, UpdatedAt: now},
	}

	status, body := serve(t, NewMomentumHandler(&mockService{summary: summary}, nil, nil), http.MethodGet, "/api/v1/users/"+userID.String()+"/momentum/summary")
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}

	var got struct {
		UserID uuid.UUID `json:"user_id"`
		Score  struct {
			Score int    `json:"score"`
			Trend string `json:"trend"`
		} `json:"score"`
	}
	if err := json.Unmarshal(body.Data, &got); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if got.UserID != userID || got.Score.Score != 50 || got.Score.Trend != string(models.TrendStable) {
		t.Errorf("Unexpected summary %+v", got)
	}
}
