package trivia

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	httperrors "github.com/jswheeler/trivia-api/pkg/http/errors"
)

// HTTPHandlers provides the REST endpoints over the trivia Service.
type HTTPHandlers struct {
	service  *Service
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for the trivia endpoints.
func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With().Str("component", "trivia_http").Logger(),
	}
}

// categoryToken accepts either a JSON string or a JSON number, since both
// appear across the frontend's call sites.
type categoryToken string

func (c *categoryToken) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = categoryToken(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = categoryToken(strconv.Itoa(n))
	return nil
}

// quizCategory accepts a bare id, a token string, or a {id, type} record.
type quizCategory struct {
	ref CategoryRef
	set bool
}

func (q *quizCategory) UnmarshalJSON(b []byte) error {
	q.set = true
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		q.ref = ByID(n)
		return nil
	}
	var rec struct {
		ID   *int   `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &rec); err == nil {
		if rec.ID != nil {
			q.ref = ByID(*rec.ID)
		} else {
			q.ref = ByType(rec.Type)
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	q.ref = ParseCategoryToken(s)
	return nil
}

// AddQuestionRequest is the POST /v1/questions payload.
type AddQuestionRequest struct {
	Question   string        `json:"question" validate:"required"`
	Answer     string        `json:"answer" validate:"required"`
	Category   categoryToken `json:"category" validate:"required"`
	Difficulty int           `json:"difficulty" validate:"required,min=1,max=5"`
}

// SearchRequest is the POST /v1/questions/search payload.
type SearchRequest struct {
	SearchTerm string `json:"search_term" validate:"required"`
	Page       int    `json:"page" validate:"omitempty,min=1"`
}

// QuizRequest is the POST /v1/quizzes payload. An absent quiz_category
// means "all categories".
type QuizRequest struct {
	PreviousQuestions []int        `json:"previous_questions"`
	QuizCategory      quizCategory `json:"quiz_category"`
}

// ListCategories handles GET /v1/categories.
func (h *HTTPHandlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"categories": cats,
	})
}

// ListQuestions handles GET /v1/questions?page=N.
func (h *HTTPHandlers) ListQuestions(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pageParam(w, r)
	if !ok {
		return
	}
	result, err := h.service.ListQuestions(r.Context(), page)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"questions":       result.Questions,
		"total_questions": result.Total,
		"categories":      result.Categories,
	})
}

// ListQuestionsByCategory handles GET /v1/categories/{token}/questions?page=N.
func (h *HTTPHandlers) ListQuestionsByCategory(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pageParam(w, r)
	if !ok {
		return
	}
	token := r.PathValue("token")
	result, err := h.service.ListQuestionsByCategory(r.Context(), token, page)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"questions":        result.Questions,
		"total_questions":  result.Total,
		"current_category": token,
	})
}

// AddQuestion handles POST /v1/questions.
func (h *HTTPHandlers) AddQuestion(w http.ResponseWriter, r *http.Request) {
	var req AddQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), validationField(err))
		return
	}

	stored, err := h.service.AddQuestion(r.Context(), AddQuestionParams{
		Question:   req.Question,
		Answer:     req.Answer,
		Category:   string(req.Category),
		Difficulty: req.Difficulty,
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"created":  stored.ID,
		"question": stored,
	})
}

// DeleteQuestion handles DELETE /v1/questions/{id}.
func (h *HTTPHandlers) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "id must be an integer", "id")
		return
	}
	deleted, err := h.service.DeleteQuestion(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"deleted": deleted,
	})
}

// SearchQuestions handles POST /v1/questions/search.
func (h *HTTPHandlers) SearchQuestions(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), validationField(err))
		return
	}

	result, err := h.service.SearchQuestions(r.Context(), req.SearchTerm, req.Page)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"questions":       result.Questions,
		"total_questions": result.Total,
	})
}

// NextQuizQuestion handles POST /v1/quizzes.
func (h *HTTPHandlers) NextQuizQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON payload")
		return
	}

	ref := req.QuizCategory.ref
	if !req.QuizCategory.set {
		ref = ByID(AllCategories)
	}

	round, err := h.service.NextQuizQuestion(r.Context(), ref, req.PreviousQuestions)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeQuizExhausted, "no unseen questions remain")
			return
		}
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"question":           round.Question,
		"quiz_category":      round.Category,
		"previous_questions": round.PreviousIDs,
	})
}

func (h *HTTPHandlers) pageParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 0, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "page must be a positive integer", "page")
		return 0, false
	}
	return page, true
}

func (h *HTTPHandlers) respondDomainError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	var se *StorageError
	switch {
	case errors.As(err, &ve):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, ve.Error(), ve.Field)
	case errors.Is(err, ErrCategoryNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeCategoryNotFound, "category not found")
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "resource not found")
	case errors.As(err, &se):
		h.logger.Error().Err(se.Cause).Str("op", se.Op).Msg("storage failure")
		httperrors.RespondInternalError(w, "internal error")
	default:
		h.logger.Error().Err(err).Msg("unexpected error")
		httperrors.RespondInternalError(w, "internal error")
	}
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("response encode failed")
	}
}

// validationField extracts the first offending field from a validator error.
func validationField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}
