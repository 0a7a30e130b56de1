package trivia

import "strconv"

// DefaultPageSize matches the page length the frontend paginates by.
const DefaultPageSize = 10

// AllCategories is the sentinel id meaning "draw from every category".
const AllCategories = 0

// Category is a question grouping, e.g. {6, "Sports"}.
type Category struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// Question is a single trivia question row.
type Question struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   int    `json:"category"`
	Difficulty int    `json:"difficulty"`
}

// CategoryRef identifies a category either by numeric id or by its type
// label. Callers supply one or the other; ResolveCategory collapses both
// into an id.
type CategoryRef struct {
	ID   int
	Type string
	byID bool
}

// ByID references a category by its numeric id.
func ByID(id int) CategoryRef {
	return CategoryRef{ID: id, byID: true}
}

// ByType references a category by its textual type label.
func ByType(t string) CategoryRef {
	return CategoryRef{Type: t}
}

// ParseCategoryToken builds a CategoryRef from a caller-supplied token,
// preferring the numeric interpretation when the token is a positive
// integer.
func ParseCategoryToken(token string) CategoryRef {
	if id, err := strconv.Atoi(token); err == nil && id > 0 {
		// Keep the raw token for the type fallback: a numeric-looking
		// label is still a legal category type.
		return CategoryRef{ID: id, Type: token, byID: true}
	}
	return ByType(token)
}

// QuestionPage is one page of questions plus the pre-pagination total.
type QuestionPage struct {
	Questions []Question
	Total     int
	// Categories maps id to type label; populated by ListQuestions only,
	// since the list view always ships the category index alongside.
	Categories map[int]string
}

// QuizRound is the outcome of a single quiz-question draw. PreviousIDs is
// echoed back unmodified; the caller owns session accumulation.
type QuizRound struct {
	Question    Question
	Category    int
	PreviousIDs []int
}

// AddQuestionParams carries the fields of a question to be created.
type AddQuestionParams struct {
	Question   string
	Answer     string
	Category   string
	Difficulty int
}
