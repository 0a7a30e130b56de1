package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jswheeler/trivia-api/internal/trivia"
)

// Store implements trivia.Store on a pgx connection pool. All multi-row
// reads order by id so pagination over them is stable.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a pgx pool as the trivia store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetAllCategories returns every category in id order.
func (s *Store) GetAllCategories(ctx context.Context) ([]trivia.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, type
		FROM categories
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

// GetCategoryByID returns the category with the given id, or nil if absent.
func (s *Store) GetCategoryByID(ctx context.Context, id int) (*trivia.Category, error) {
	var cat trivia.Category
	err := s.pool.QueryRow(ctx, `
		SELECT id, type
		FROM categories
		WHERE id = $1
	`, id).Scan(&cat.ID, &cat.Type)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query category by id: %w", err)
	}
	return &cat, nil
}

// GetCategoryByType returns the first category with an exact type match, or
// nil if absent. Type is not unique in the data; lowest id wins.
func (s *Store) GetCategoryByType(ctx context.Context, categoryType string) (*trivia.Category, error) {
	var cat trivia.Category
	err := s.pool.QueryRow(ctx, `
		SELECT id, type
		FROM categories
		WHERE type = $1
		ORDER BY id
		LIMIT 1
	`, categoryType).Scan(&cat.ID, &cat.Type)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query category by type: %w", err)
	}
	return &cat, nil
}

// GetAllQuestions returns every question in id order.
func (s *Store) GetAllQuestions(ctx context.Context) ([]trivia.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, question, answer, category, difficulty
		FROM questions
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// GetQuestionsByCategory returns the category's questions in id order.
func (s *Store) GetQuestionsByCategory(ctx context.Context, categoryID int) ([]trivia.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, question, answer, category, difficulty
		FROM questions
		WHERE category = $1
		ORDER BY id
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("query questions by category: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// SearchQuestionsByText returns questions whose text contains substring,
// case-insensitively, in id order.
func (s *Store) SearchQuestionsByText(ctx context.Context, substring string) ([]trivia.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, question, answer, category, difficulty
		FROM questions
		WHERE question ILIKE '%' || $1 || '%'
		ORDER BY id
	`, substring)
	if err != nil {
		return nil, fmt.Errorf("search questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// GetQuestionByID returns the question with the given id, or nil if absent.
func (s *Store) GetQuestionByID(ctx context.Context, id int) (*trivia.Question, error) {
	var q trivia.Question
	err := s.pool.QueryRow(ctx, `
		SELECT id, question, answer, category, difficulty
		FROM questions
		WHERE id = $1
	`, id).Scan(&q.ID, &q.Question, &q.Answer, &q.Category, &q.Difficulty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query question by id: %w", err)
	}
	return &q, nil
}

// InsertQuestion persists a new question inside a transaction and returns
// the stored row with its assigned id.
func (s *Store) InsertQuestion(ctx context.Context, q trivia.Question) (trivia.Question, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return trivia.Question{}, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO questions (question, answer, category, difficulty)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, q.Question, q.Answer, q.Category, q.Difficulty).Scan(&q.ID)
	if err != nil {
		return trivia.Question{}, fmt.Errorf("insert question: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return trivia.Question{}, fmt.Errorf("commit insert: %w", err)
	}
	return q, nil
}

// DeleteQuestionByID removes a question inside a transaction, reporting
// whether a row was actually deleted.
func (s *Store) DeleteQuestionByID(ctx context.Context, id int) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete question: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanCategories(rows pgx.Rows) ([]trivia.Category, error) {
	var cats []trivia.Category
	for rows.Next() {
		var cat trivia.Category
		if err := rows.Scan(&cat.ID, &cat.Type); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}

func scanQuestions(rows pgx.Rows) ([]trivia.Question, error) {
	var qs []trivia.Question
	for rows.Next() {
		var q trivia.Question
		if err := rows.Scan(&q.ID, &q.Question, &q.Answer, &q.Category, &q.Difficulty); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		qs = append(qs, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return qs, nil
}
