package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplatform/insight-hub/internal/application/query"
	"github.com/eduplatform/insight-hub/internal/domain/academic"
	"github.com/eduplatform/insight-hub/internal/domain/shared"
	"github.com/eduplatform/insight-hub/internal/interface/http/handlers"
)

const (
	studentHex = "aaaaaaaaaaaaaaaaaaaaaaaa"
	teacherHex = "bbbbbbbbbbbbbbbbbbbbbbbb"
	panicHex   = "eeeeeeeeeeeeeeeeeeeeeeee"
)

// stubRepo knows two users and has no sessions.
type stubRepo struct{}

func (stubRepo) GetUser(_ context.Context, id academic.ID) (*academic.User, error) {
	switch id {
	case studentHex:
		return &academic.User{ID: id, FirstName: "Ada", LastName: "Lovelace", Role: academic.RoleStudent}, nil
	case teacherHex:
		return &academic.User{ID: id, Role: "teacher"}, nil
	case panicHex:
		panic("store exploded")
	}
	return nil, shared.NewDomainError("academic", "GetUser", shared.ErrNotFound, "user not found")
}

func (stubRepo) FindUsersByIDs(context.Context, []academic.ID) ([]academic.User, error) {
	return nil, nil
}

func (stubRepo) FindActiveSessions(context.Context, *academic.ID) ([]academic.Session, error) {
	return nil, nil
}

func (stubRepo) FindSessionsByIDs(context.Context, []academic.ID) ([]academic.Session, error) {
	return nil, nil
}

func (stubRepo) FindEnrollmentsByStudent(context.Context, academic.ID) ([]academic.Enrollment, error) {
	return nil, nil
}

func (stubRepo) FindCoursesByIDs(context.Context, []academic.ID, []academic.ID) ([]academic.Course, error) {
	return nil, nil
}

func (stubRepo) FindCategoriesByCourses(context.Context, []academic.ID) ([]academic.GradeCategory, error) {
	return nil, nil
}

func (stubRepo) FindItemsByCourses(context.Context, []academic.ID) ([]academic.GradeItem, error) {
	return nil, nil
}

func (stubRepo) FindGradesByStudent(context.Context, academic.ID, []academic.ID) ([]academic.Grade, error) {
	return nil, nil
}

func (stubRepo) FindDocumentsByCourses(context.Context, []academic.ID) ([]academic.Document, error) {
	return nil, nil
}

func (stubRepo) FindReportsByStudent(context.Context, academic.ID, []academic.ID) ([]academic.Report, error) {
	return nil, nil
}

func (stubRepo) GetProgram(_ context.Context, id academic.ID) (*academic.Program, error) {
	return nil, shared.NewDomainError("academic", "GetProgram", shared.ErrNotFound, "program not found")
}

// stubResponder answers chat with a fixed reply or error.
type stubResponder struct {
	reply string
	err   error
	got   []query.ChatMessage
}

func (s *stubResponder) Chat(_ context.Context, msgs []query.ChatMessage) (string, error) {
	s.got = msgs
	return s.reply, s.err
}

type failingPing struct{}

func (failingPing) Ping(context.Context) error { return errors.New("connection refused") }

type okPing struct{}

func (okPing) Ping(context.Context) error { return nil }

func newTestServer(t *testing.T, responder query.ChatResponder, health *handlers.HealthChecker) http.Handler {
	t.Helper()
	repo := stubRepo{}
	selector := query.NewContextSelector(nil, query.ContextSelectorConfig{}, nil)

	deps := Dependencies{
		Analysis:     query.NewGetStudentAnalysisHandler(repo, selector, nil, query.AnalysisConfig{}, nil),
		Health:       health,
		AIConfigured: func() bool { return responder != nil },
	}
	if responder != nil {
		deps.Chat = query.NewStudentChatHandler(repo, responder, nil)
	}
	return NewServer(DefaultConfig(), deps).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handlers.ErrorEnvelope {
	t.Helper()
	var env handlers.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestAnalyzeStudent_NoActiveCourses(t *testing.T) {
	h := newTestServer(t, nil, nil)

	rec := do(t, h, http.MethodPost, "/ia/analyze/student", `{"studentId":"`+studentHex+`"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"courses":[]}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(handlers.HeaderRequestID))
}

func TestAnalyzeStudent_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{
			name:   "empty body",
			body:   ``,
			status: http.StatusBadRequest,
			code:   handlers.CodeInvalidRequest,
		},
		{
			name:   "not json",
			body:   `studentId=1`,
			status: http.StatusBadRequest,
			code:   handlers.CodeInvalidRequest,
		},
		{
			name:   "missing student",
			body:   `{}`,
			status: http.StatusBadRequest,
			code:   handlers.CodeInvalidRequest,
		},
		{
			name:   "malformed student id",
			body:   `{"studentId":"12345"}`,
			status: http.StatusBadRequest,
			code:   handlers.CodeInvalidIdentifier,
		},
		{
			name:   "malformed college id",
			body:   `{"studentId":"` + studentHex + `","collegeId":"zzzzzzzzzzzzzzzzzzzzzzzz"}`,
			status: http.StatusBadRequest,
			code:   handlers.CodeInvalidIdentifier,
		},
		{
			name:   "unknown student",
			body:   `{"studentId":"ffffffffffffffffffffffff"}`,
			status: http.StatusNotFound,
			code:   handlers.CodeNotFound,
		},
		{
			name:   "user is not a student",
			body:   `{"studentId":"` + teacherHex + `"}`,
			status: http.StatusNotFound,
			code:   handlers.CodeNotFound,
		},
	}

	h := newTestServer(t, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/ia/analyze/student", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			env := decodeError(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.Equal(t, rec.Header().Get(handlers.HeaderRequestID), env.RequestID)
		})
	}
}

func TestAnalyzeStudent_PanicIsRecovered(t *testing.T) {
	h := newTestServer(t, nil, nil)

	rec := do(t, h, http.MethodPost, "/ia/analyze/student", `{"studentId":"`+panicHex+`"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, handlers.CodeInternal, decodeError(t, rec).Error.Code)
}

func TestAnalyzeStudent_KeepsIncomingRequestID(t *testing.T) {
	h := newTestServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/ia/analyze/student", strings.NewReader(`{}`))
	req.Header.Set(handlers.HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(handlers.HeaderRequestID))
	assert.Equal(t, "req-42", decodeError(t, rec).RequestID)
}

func TestChatMessage(t *testing.T) {
	responder := &stubResponder{reply: "You have no active courses yet."}
	h := newTestServer(t, responder, nil)

	rec := do(t, h, http.MethodPost, "/chat/message", `{
		"studentId": "`+studentHex+`",
		"message": "How am I doing?",
		"history": [{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"You have no active courses yet.","context_used":true}`, rec.Body.String())

	require.Len(t, responder.got, 4)
	assert.Equal(t, query.RoleSystem, responder.got[0].Role)
	assert.Contains(t, responder.got[0].Content, "Student: Ada Lovelace")
	assert.Contains(t, responder.got[0].Content, "No active courses found.")
	assert.Equal(t, "How am I doing?", responder.got[3].Content)
}

func TestChatMessage_Errors(t *testing.T) {
	t.Run("reasoning not configured", func(t *testing.T) {
		h := newTestServer(t, &stubResponder{err: shared.ErrReasoningNotConfigured}, nil)

		rec := do(t, h, http.MethodPost, "/chat/message", `{"studentId":"`+studentHex+`","message":"hi"}`)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, handlers.CodeUnavailable, decodeError(t, rec).Error.Code)
	})

	t.Run("empty message", func(t *testing.T) {
		h := newTestServer(t, &stubResponder{}, nil)

		rec := do(t, h, http.MethodPost, "/chat/message", `{"studentId":"`+studentHex+`","message":""}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unexpected failure", func(t *testing.T) {
		h := newTestServer(t, &stubResponder{err: errors.New("boom")}, nil)

		rec := do(t, h, http.MethodPost, "/chat/message", `{"studentId":"`+studentHex+`","message":"hi"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "An unexpected error occurred", decodeError(t, rec).Error.Message)
	})

	t.Run("chat disabled", func(t *testing.T) {
		h := newTestServer(t, nil, nil)

		rec := do(t, h, http.MethodPost, "/chat/message", `{"studentId":"`+studentHex+`","message":"hi"}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		checker := handlers.NewHealthChecker("test")
		checker.AddCheck("postgres", handlers.PingCheck(okPing{}))
		h := newTestServer(t, &stubResponder{}, checker)

		rec := do(t, h, http.MethodGet, "/health", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, true, body["ai_configured"])
		assert.Contains(t, body["checks"], "postgres")
	})

	t.Run("failing check", func(t *testing.T) {
		checker := handlers.NewHealthChecker("test")
		checker.AddCheck("postgres", handlers.PingCheck(okPing{}))
		checker.AddCheck("redis", handlers.PingCheck(failingPing{}))
		h := newTestServer(t, nil, checker)

		rec := do(t, h, http.MethodGet, "/health", "")

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, false, body["ai_configured"])
		assert.Equal(t, "Some checks failed: redis", body["message"])
	})
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodOptions, "/ia/analyze/student", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
