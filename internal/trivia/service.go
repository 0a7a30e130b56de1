package trivia

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog"
)

// Store is the persistence collaborator holding category and question rows.
// Absent lookups return a nil pointer, not an error; policy around "nothing
// found" lives in the Service.
type Store interface {
	GetAllCategories(ctx context.Context) ([]Category, error)
	GetCategoryByID(ctx context.Context, id int) (*Category, error)
	GetCategoryByType(ctx context.Context, categoryType string) (*Category, error)
	GetAllQuestions(ctx context.Context) ([]Question, error)
	GetQuestionsByCategory(ctx context.Context, categoryID int) ([]Question, error)
	SearchQuestionsByText(ctx context.Context, substring string) ([]Question, error)
	GetQuestionByID(ctx context.Context, id int) (*Question, error)
	InsertQuestion(ctx context.Context, q Question) (Question, error)
	DeleteQuestionByID(ctx context.Context, id int) (bool, error)
}

// Service owns all read/write operations against the store and the derived
// logic: pagination, category resolution and exclusion-filtered random
// selection. It holds no row state across calls; every operation re-reads
// the store.
type Service struct {
	store    Store
	logger   zerolog.Logger
	pageSize int
	pick     func(n int) int
}

// ServiceOptions tunes page length and, for tests, the random pick.
type ServiceOptions struct {
	PageSize int
	// Pick returns a uniform index in [0, n); defaults to math/rand/v2.
	Pick func(n int) int
}

func NewService(store Store, logger zerolog.Logger, opts ServiceOptions) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	return &Service{
		store:    store,
		logger:   logger.With().Str("component", "trivia").Logger(),
		pageSize: opts.PageSize,
		pick:     opts.Pick,
	}
}

// ResolveCategory collapses a CategoryRef into a category id. Numeric refs
// are looked up by id first and fall back to an exact type match, so "6"
// resolves to the category with id 6 even if some category is literally
// named "6".
func (s *Service) ResolveCategory(ctx context.Context, ref CategoryRef) (int, error) {
	if ref.byID {
		cat, err := s.store.GetCategoryByID(ctx, ref.ID)
		if err != nil {
			return 0, &StorageError{Op: "category lookup", Cause: err}
		}
		if cat != nil {
			return cat.ID, nil
		}
	}
	if ref.Type != "" {
		cat, err := s.store.GetCategoryByType(ctx, ref.Type)
		if err != nil {
			return 0, &StorageError{Op: "category lookup", Cause: err}
		}
		if cat != nil {
			return cat.ID, nil
		}
	}
	return 0, ErrCategoryNotFound
}

// ListCategories returns every category in id order.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	cats, err := s.store.GetAllCategories(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list categories", Cause: err}
	}
	return cats, nil
}

// ListQuestions returns one page of all questions together with the full
// category index. A page past the end of the data is ErrNotFound, never an
// empty success.
func (s *Service) ListQuestions(ctx context.Context, page int) (QuestionPage, error) {
	questions, err := s.store.GetAllQuestions(ctx)
	if err != nil {
		return QuestionPage{}, &StorageError{Op: "list questions", Cause: err}
	}
	cats, err := s.store.GetAllCategories(ctx)
	if err != nil {
		return QuestionPage{}, &StorageError{Op: "list categories", Cause: err}
	}

	pageItems := paginate(questions, page, s.pageSize)
	if len(pageItems) == 0 {
		return QuestionPage{}, ErrNotFound
	}

	index := make(map[int]string, len(cats))
	for _, c := range cats {
		index[c.ID] = c.Type
	}
	return QuestionPage{Questions: pageItems, Total: len(questions), Categories: index}, nil
}

// ListQuestionsByCategory resolves token and returns one page of that
// category's questions. Total counts all matches, not the page length.
func (s *Service) ListQuestionsByCategory(ctx context.Context, token string, page int) (QuestionPage, error) {
	categoryID, err := s.ResolveCategory(ctx, ParseCategoryToken(token))
	if err != nil {
		return QuestionPage{}, err
	}

	questions, err := s.store.GetQuestionsByCategory(ctx, categoryID)
	if err != nil {
		return QuestionPage{}, &StorageError{Op: "list questions by category", Cause: err}
	}

	pageItems := paginate(questions, page, s.pageSize)
	if len(pageItems) == 0 {
		return QuestionPage{}, ErrNotFound
	}
	return QuestionPage{Questions: pageItems, Total: len(questions)}, nil
}

// SearchQuestions matches term case-insensitively against question text.
// Zero matches is ErrNotFound by longstanding API contract.
func (s *Service) SearchQuestions(ctx context.Context, term string, page int) (QuestionPage, error) {
	if strings.TrimSpace(term) == "" {
		return QuestionPage{}, &ValidationError{Field: "search_term", Reason: "must not be empty"}
	}

	matches, err := s.store.SearchQuestionsByText(ctx, term)
	if err != nil {
		return QuestionPage{}, &StorageError{Op: "search questions", Cause: err}
	}

	pageItems := paginate(matches, page, s.pageSize)
	if len(pageItems) == 0 {
		return QuestionPage{}, ErrNotFound
	}
	return QuestionPage{Questions: pageItems, Total: len(matches)}, nil
}

// AddQuestion validates and persists a new question, returning the stored
// row with its assigned id. Validation runs before the store is touched.
func (s *Service) AddQuestion(ctx context.Context, params AddQuestionParams) (Question, error) {
	if strings.TrimSpace(params.Question) == "" {
		return Question{}, &ValidationError{Field: "question", Reason: "must not be empty"}
	}
	if strings.TrimSpace(params.Answer) == "" {
		return Question{}, &ValidationError{Field: "answer", Reason: "must not be empty"}
	}
	if strings.TrimSpace(params.Category) == "" {
		return Question{}, &ValidationError{Field: "category", Reason: "must not be empty"}
	}
	if params.Difficulty < 1 || params.Difficulty > 5 {
		return Question{}, &ValidationError{Field: "difficulty", Reason: "must be between 1 and 5"}
	}

	categoryID, err := s.ResolveCategory(ctx, ParseCategoryToken(params.Category))
	if err != nil {
		if IsNotFound(err) {
			return Question{}, &ValidationError{Field: "category", Reason: "no such category"}
		}
		return Question{}, err
	}

	stored, err := s.store.InsertQuestion(ctx, Question{
		Question:   params.Question,
		Answer:     params.Answer,
		Category:   categoryID,
		Difficulty: params.Difficulty,
	})
	if err != nil {
		s.logger.Error().Err(err).Int("category", categoryID).Msg("question insert failed")
		return Question{}, &StorageError{Op: "insert question", Cause: err}
	}
	return stored, nil
}

// DeleteQuestion removes a question by id and returns the deleted id for
// confirmation.
func (s *Service) DeleteQuestion(ctx context.Context, id int) (int, error) {
	if id <= 0 {
		return 0, &ValidationError{Field: "id", Reason: "must be a positive integer"}
	}

	existing, err := s.store.GetQuestionByID(ctx, id)
	if err != nil {
		return 0, &StorageError{Op: "question lookup", Cause: err}
	}
	if existing == nil {
		return 0, ErrNotFound
	}

	deleted, err := s.store.DeleteQuestionByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int("question_id", id).Msg("question delete failed")
		return 0, &StorageError{Op: "delete question", Cause: err}
	}
	if !deleted {
		// Row vanished between lookup and delete.
		return 0, ErrNotFound
	}
	return id, nil
}

// NextQuizQuestion draws one question uniformly at random from the resolved
// category, excluding previously-seen ids. An empty candidate set means the
// quiz pool is exhausted and surfaces as ErrNotFound. Selection is stateless;
// the caller accumulates previousIDs across turns.
func (s *Service) NextQuizQuestion(ctx context.Context, ref CategoryRef, previousIDs []int) (QuizRound, error) {
	var (
		questions  []Question
		categoryID = AllCategories
		err        error
	)

	if ref.byID && ref.ID == AllCategories {
		questions, err = s.store.GetAllQuestions(ctx)
	} else {
		categoryID, err = s.ResolveCategory(ctx, ref)
		if err != nil {
			return QuizRound{}, err
		}
		questions, err = s.store.GetQuestionsByCategory(ctx, categoryID)
	}
	if err != nil {
		return QuizRound{}, &StorageError{Op: "quiz candidate fetch", Cause: err}
	}

	seen := make(map[int]struct{}, len(previousIDs))
	for _, id := range previousIDs {
		seen[id] = struct{}{}
	}

	candidates := questions[:0:0]
	for _, q := range questions {
		if _, ok := seen[q.ID]; !ok {
			candidates = append(candidates, q)
		}
	}
	if len(candidates) == 0 {
		return QuizRound{}, ErrNotFound
	}

	return QuizRound{
		Question:    candidates[s.pick(len(candidates))],
		Category:    categoryID,
		PreviousIDs: previousIDs,
	}, nil
}

// paginate slices one 1-indexed page out of items. Page 0 means "unset" and
// defaults to 1; a start past the end yields an empty slice, which callers
// turn into ErrNotFound.
func paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}
