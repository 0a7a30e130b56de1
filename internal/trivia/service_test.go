package trivia

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	categories []Category
	questions  []Question
	nextID     int

	failWith   error
	failInsert error
}

func newStubStore(categories []Category, questions []Question) *stubStore {
	nextID := 1
	for _, q := range questions {
		if q.ID >= nextID {
			nextID = q.ID + 1
		}
	}
	return &stubStore{categories: categories, questions: questions, nextID: nextID}
}

func (s *stubStore) GetAllCategories(context.Context) ([]Category, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.categories, nil
}

func (s *stubStore) GetCategoryByID(_ context.Context, id int) (*Category, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	for _, c := range s.categories {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *stubStore) GetCategoryByType(_ context.Context, categoryType string) (*Category, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	for _, c := range s.categories {
		if c.Type == categoryType {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *stubStore) GetAllQuestions(context.Context) ([]Question, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.questions, nil
}

func (s *stubStore) GetQuestionsByCategory(_ context.Context, categoryID int) ([]Question, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []Question
	for _, q := range s.questions {
		if q.Category == categoryID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *stubStore) SearchQuestionsByText(_ context.Context, substring string) ([]Question, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []Question
	for _, q := range s.questions {
		if strings.Contains(strings.ToLower(q.Question), strings.ToLower(substring)) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *stubStore) GetQuestionByID(_ context.Context, id int) (*Question, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	for _, q := range s.questions {
		if q.ID == id {
			return &q, nil
		}
	}
	return nil, nil
}

func (s *stubStore) InsertQuestion(_ context.Context, q Question) (Question, error) {
	if s.failWith != nil {
		return Question{}, s.failWith
	}
	if s.failInsert != nil {
		return Question{}, s.failInsert
	}
	q.ID = s.nextID
	s.nextID++
	s.questions = append(s.questions, q)
	return q, nil
}

func (s *stubStore) DeleteQuestionByID(_ context.Context, id int) (bool, error) {
	if s.failWith != nil {
		return false, s.failWith
	}
	for i, q := range s.questions {
		if q.ID == id {
			s.questions = append(s.questions[:i], s.questions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func testService(store Store, opts ServiceOptions) *Service {
	return NewService(store, zerolog.Nop(), opts)
}

func questionsInCategory(category, n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			ID:         i + 1,
			Question:   fmt.Sprintf("question %d", i+1),
			Answer:     fmt.Sprintf("answer %d", i+1),
			Category:   category,
			Difficulty: 1 + i%5,
		}
	}
	return qs
}

func TestResolveCategoryPrefersNumericID(t *testing.T) {
	store := newStubStore([]Category{{ID: 1, Type: "Science"}, {ID: 6, Type: "Sports"}}, nil)
	svc := testService(store, ServiceOptions{})
	ctx := context.Background()

	byNumber, err := svc.ResolveCategory(ctx, ParseCategoryToken("6"))
	require.NoError(t, err)
	assert.Equal(t, 6, byNumber)

	byName, err := svc.ResolveCategory(ctx, ParseCategoryToken("Sports"))
	require.NoError(t, err)
	assert.Equal(t, 6, byName)
}

func TestResolveCategoryNumericTokenFallsBackToType(t *testing.T) {
	// A category literally named "99" with a different id.
	store := newStubStore([]Category{{ID: 3, Type: "99"}}, nil)
	svc := testService(store, ServiceOptions{})

	id, err := svc.ResolveCategory(context.Background(), ParseCategoryToken("99"))
	require.NoError(t, err)
	assert.Equal(t, 3, id)
}

func TestResolveCategoryMiss(t *testing.T) {
	store := newStubStore([]Category{{ID: 1, Type: "Science"}}, nil)
	svc := testService(store, ServiceOptions{})

	_, err := svc.ResolveCategory(context.Background(), ParseCategoryToken("Cooking"))
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestListQuestionsPagination(t *testing.T) {
	categories := []Category{{ID: 1, Type: "Science"}, {ID: 6, Type: "Sports"}}
	store := newStubStore(categories, questionsInCategory(1, 12))
	svc := testService(store, ServiceOptions{})
	ctx := context.Background()

	page1, err := svc.ListQuestions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, page1.Questions, 10)
	assert.Equal(t, 12, page1.Total)
	assert.Equal(t, map[int]string{1: "Science", 6: "Sports"}, page1.Categories)

	page2, err := svc.ListQuestions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, page2.Questions, 2)
	assert.Equal(t, 12, page2.Total)

	_, err = svc.ListQuestions(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListQuestionsPagesReconstructOrderedSet(t *testing.T) {
	all := questionsInCategory(1, 23)
	store := newStubStore([]Category{{ID: 1, Type: "Science"}}, all)
	svc := testService(store, ServiceOptions{})
	ctx := context.Background()

	var reconstructed []Question
	for page := 1; ; page++ {
		result, err := svc.ListQuestions(ctx, page)
		if errors.Is(err, ErrNotFound) {
			break
		}
		require.NoError(t, err)
		reconstructed = append(reconstructed, result.Questions...)
	}
	assert.Equal(t, all, reconstructed)
}

func TestListQuestionsDefaultsToFirstPage(t *testing.T) {
	store := newStubStore([]Category{{ID: 1, Type: "Science"}}, questionsInCategory(1, 12))
	svc := testService(store, ServiceOptions{})

	unset, err := svc.ListQuestions(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, unset.Questions, 10)
	assert.Equal(t, 1, unset.Questions[0].ID)
}

func TestListQuestionsEmptyStore(t *testing.T) {
	store := newStubStore([]Category{{ID: 1, Type: "Science"}}, nil)
	svc := testService(store, ServiceOptions{})

	_, err := svc.ListQuestions(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListQuestionsByCategory(t *testing.T) {
	categories := []Category{{ID: 1, Type: "Science"}, {ID: 6, Type: "Sports"}}
	store := newStubStore(categories, questionsInCategory(1, 12))
	svc := testService(store, ServiceOptions{})
	ctx := context.Background()

	result, err := svc.ListQuestionsByCategory(ctx, "Science", 1)
	require.NoError(t, err)
	assert.Len(t, result.Questions, 10)
	assert.Equal(t, 12, result.Total)

	// Category exists but holds no questions: empty page, not empty success.
	_, err = svc.ListQuestionsByCategory(ctx, "6", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ListQuestionsByCategory(ctx, "Cooking", 1)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestSearchQuestions(t *testing.T) {
	questions := []Question{
		{ID: 1, Question: "What is the largest lake in Africa?", Answer: "Lake Victoria", Category: 3, Difficulty: 2},
		{ID: 2, Question: "Whose autobiography is entitled I Know Why the Caged Bird Sings?", Answer: "Maya Angelou", Category: 4, Difficulty: 2},
		{ID: 3, Question: "What movie earned Tom Hanks his third straight Oscar nomination?", Answer: "Apollo 13", Category: 5, Difficulty: 4},
	}
	store := newStubStore([]Category{{ID: 3, Type: "Geography"}}, questions)
	svc := testService(store, ServiceOptions{})
	ctx := context.Background()

	result, err := svc.SearchQuestions(ctx, "LAKE", 0)
	require.NoError(t, err)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, 1, result.Questions[0].ID)
	assert.Equal(t, 1, result.Total)

	_, err = svc.SearchQuestions(ctx, "nonexistent", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SearchQuestions(ctx, "   ", 0)
	assert.True(t, IsValidation(err))
}

func TestAddQuestionValidation(t *testing.T) {
	store := newStubStore([]Category{{ID: 1, Type: "Science"}}, nil)
	svc := testService(store, ServiceOptions{})
	ctx := context.Background()

	cases := []struct {
		name   string
		params AddQuestionParams
		field  string
	}{
		{"missing question", AddQuestionParams{Answer: "a", Category: "1", Difficulty: 3}, "question"},
		{"missing answer", AddQuestionParams{Question: "q", Category: "1", Difficulty: 3}, "answer"},
		{"missing category", AddQuestionParams{Question: "q", Answer: "a", Difficulty: 3}, "category"},
		{"difficulty too high", AddQuestionParams{Question: "q", Answer: "a", Category: "1", Difficulty: 6}, "difficulty"},
		{"difficulty too low", AddQuestionParams{Question: "q", Answer: "a", Category: "1", Difficulty: 0}, "difficulty"},
		{"unknown category", AddQuestionParams{Question: "q", Answer: "a", Category: "Cooking", Difficulty: 3}, "category"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddQuestion(ctx, tc.params)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	// Nothing reached the store.
	assert.Empty(t, store.questions)
}

func TestAddQuestionRoundTrip(t *testing.T) {
	store := newStubStore([]Category{{ID: 6, Type: "Sports"}}, nil)
	svc := testService(store, ServiceOptions{})
	ctx := context.Background()

	stored, err := svc.AddQuestion(ctx, AddQuestionParams{
		Question:   "Which country won the first World Cup?",
		Answer:     "Uruguay",
		Category:   "Sports",
		Difficulty: 3,
	})
	require.NoError(t, err)
	assert.Positive(t, stored.ID)
	assert.Equal(t, 6, stored.Category)

	all, err := store.GetAllQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, stored.ID, all[0].ID)
}

func TestAddQuestionStorageFailure(t *testing.T) {
	store := newStubStore([]Category{{ID: 1, Type: "Science"}}, nil)
	store.failInsert = errors.New("connection reset")
	svc := testService(store, ServiceOptions{})

	_, err := svc.AddQuestion(context.Background(), AddQuestionParams{
		Question: "q", Answer: "a", Category: "1", Difficulty: 3,
	})
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.NotContains(t, se.Error(), "connection reset")
}

func TestDeleteQuestion(t *testing.T) {
	store := newStubStore([]Category{{ID: 1, Type: "Science"}}, questionsInCategory(1, 3))
	svc := testService(store, ServiceOptions{})
	ctx := context.Background()

	_, err := svc.DeleteQuestion(ctx, -1)
	assert.True(t, IsValidation(err))

	_, err = svc.DeleteQuestion(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := svc.DeleteQuestion(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	all, err := store.GetAllQuestions(ctx)
	require.NoError(t, err)
	for _, q := range all {
		assert.NotEqual(t, 2, q.ID)
	}
}

func TestNextQuizQuestionExcludesPrevious(t *testing.T) {
	categories := []Category{{ID: 6, Type: "Sports"}}
	questions := []Question{
		{ID: 1, Question: "q1", Answer: "a1", Category: 6, Difficulty: 1},
		{ID: 2, Question: "q2", Answer: "a2", Category: 6, Difficulty: 2},
		{ID: 3, Question: "q3", Answer: "a3", Category: 6, Difficulty: 3},
	}
	store := newStubStore(categories, questions)
	svc := testService(store, ServiceOptions{})
	ctx := context.Background()

	// Two of three seen: the remaining one is chosen with probability 1.
	for range 20 {
		round, err := svc.NextQuizQuestion(ctx, ByID(6), []int{1, 2})
		require.NoError(t, err)
		assert.Equal(t, 3, round.Question.ID)
		assert.Equal(t, 6, round.Category)
		assert.Equal(t, []int{1, 2}, round.PreviousIDs)
	}

	_, err := svc.NextQuizQuestion(ctx, ByID(6), []int{1, 2, 3})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNextQuizQuestionAllCategoriesSentinel(t *testing.T) {
	categories := []Category{{ID: 1, Type: "Science"}, {ID: 6, Type: "Sports"}}
	questions := []Question{
		{ID: 1, Question: "q1", Answer: "a1", Category: 1, Difficulty: 1},
		{ID: 2, Question: "q2", Answer: "a2", Category: 6, Difficulty: 2},
	}
	store := newStubStore(categories, questions)
	svc := testService(store, ServiceOptions{Pick: func(int) int { return 0 }})

	round, err := svc.NextQuizQuestion(context.Background(), ByID(AllCategories), []int{1})
	require.NoError(t, err)
	assert.Equal(t, 2, round.Question.ID)
	assert.Equal(t, AllCategories, round.Category)
}

func TestNextQuizQuestionUnknownCategory(t *testing.T) {
	store := newStubStore([]Category{{ID: 1, Type: "Science"}}, nil)
	svc := testService(store, ServiceOptions{})

	_, err := svc.NextQuizQuestion(context.Background(), ByID(9), nil)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestNextQuizQuestionUniformPickStaysInBounds(t *testing.T) {
	store := newStubStore([]Category{{ID: 1, Type: "Science"}}, questionsInCategory(1, 5))
	picked := map[int]bool{}
	idx := 0
	svc := testService(store, ServiceOptions{Pick: func(n int) int {
		i := idx % n
		idx++
		return i
	}})

	for range 5 {
		round, err := svc.NextQuizQuestion(context.Background(), ByType("Science"), nil)
		require.NoError(t, err)
		picked[round.Question.ID] = true
	}
	// Every candidate is reachable by the pick function.
	assert.Len(t, picked, 5)
}

func TestPaginateArithmetic(t *testing.T) {
	for n := 0; n <= 35; n++ {
		items := make([]int, n)
		for page := 1; page <= 5; page++ {
			got := len(paginate(items, page, 10))
			want := min(10, max(0, n-10*(page-1)))
			assert.Equal(t, want, got, "n=%d page=%d", n, page)
		}
	}
}
