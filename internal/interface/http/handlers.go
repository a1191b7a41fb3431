package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eduplatform/insight-hub/internal/application/query"
	"github.com/eduplatform/insight-hub/internal/domain/shared"
	"github.com/eduplatform/insight-hub/internal/interface/http/handlers"
	"github.com/eduplatform/insight-hub/pkg/logger"
)

var validate = validator.New()

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / RESPONSE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// analyzeStudentRequest is the body of POST /ia/analyze/student.
type analyzeStudentRequest struct {
	StudentID string `json:"studentId" validate:"required,len=24,hexadecimal"`
	CollegeID string `json:"collegeId" validate:"omitempty,len=24,hexadecimal"`
}

// chatMessageRequest is the body of POST /chat/message.
type chatMessageRequest struct {
	StudentID string              `json:"studentId" validate:"required,len=24,hexadecimal"`
	Message   string              `json:"message" validate:"required,max=4000"`
	History   []query.ChatMessage `json:"history" validate:"max=100"`
}

// chatMessageResponse is the reply of POST /chat/message.
type chatMessageResponse struct {
	Response    string `json:"response"`
	ContextUsed bool   `json:"context_used"`
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status       string `json:"status"`
	AIConfigured bool   `json:"ai_configured"`
	handlers.HealthReport
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleAnalyzeStudent runs the per-course analysis for one student.
func (s *Server) handleAnalyzeStudent(w http.ResponseWriter, r *http.Request) {
	var req analyzeStudentRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.deps.Analysis.Handle(r.Context(), query.GetStudentAnalysisQuery{
		StudentID: req.StudentID,
		CollegeID: req.CollegeID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("student analysis completed",
		logger.StudentID(req.StudentID),
		logger.Int("courses", len(result.Courses)),
	)
	handlers.WriteJSON(w, http.StatusOK, result)
}

// handleChatMessage answers a free-form question about the student.
func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.deps.Chat.Handle(r.Context(), query.StudentChatQuery{
		StudentID: req.StudentID,
		Message:   req.Message,
		History:   req.History,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, chatMessageResponse{
		Response:    result.Reply,
		ContextUsed: true,
	})
}

// handleHealth reports component checks. Any failed check yields 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.deps.Health.Check(r.Context())

	resp := healthResponse{
		Status:       "ok",
		AIConfigured: s.deps.AIConfigured(),
		HealthReport: report,
	}
	status := http.StatusOK
	if !report.Healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	handlers.WriteJSON(w, status, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decode reads a JSON body into dst and validates it. On failure it writes a
// 400 and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	dec := json.NewDecoder(body)

	if err := dec.Decode(dst); err != nil {
		msg := "Request body must be a JSON object"
		if errors.Is(err, io.EOF) {
			msg = "Request body is empty"
		}
		handlers.WriteError(w, r, http.StatusBadRequest, handlers.CodeInvalidRequest, msg)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		code, msg := describeValidation(err)
		handlers.WriteError(w, r, http.StatusBadRequest, code, msg)
		return false
	}
	return true
}

func describeValidation(err error) (code, message string) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return handlers.CodeInvalidRequest, err.Error()
	}

	code = handlers.CodeInvalidRequest
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonName(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "len", "hexadecimal":
			code = handlers.CodeInvalidIdentifier
			parts = append(parts, field+" must be a 24-character hex identifier")
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return code, strings.Join(parts, "; ")
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// writeDomainError maps domain error kinds to HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	switch {
	case errors.Is(err, shared.ErrInvalidID):
		handlers.WriteError(w, r, http.StatusBadRequest, handlers.CodeInvalidIdentifier, publicMessage(err))
	case shared.IsValidation(err):
		handlers.WriteError(w, r, http.StatusBadRequest, handlers.CodeInvalidRequest, publicMessage(err))
	case shared.IsNotFound(err):
		handlers.WriteError(w, r, http.StatusNotFound, handlers.CodeNotFound, publicMessage(err))
	case shared.IsUnavailable(err):
		log.Warn("upstream unavailable", logger.Err(err))
		handlers.WriteError(w, r, http.StatusServiceUnavailable, handlers.CodeUnavailable, publicMessage(err))
	default:
		log.Error("request failed", logger.Err(err))
		handlers.WriteError(w, r, http.StatusInternalServerError, handlers.CodeInternal, "An unexpected error occurred")
	}
}

// publicMessage returns the outermost domain message, without wrapped causes.
func publicMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
