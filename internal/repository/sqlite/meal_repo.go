package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"calai/internal/domain"
	"calai/internal/port"
)

type mealRepo struct {
	db *sql.DB
}

// NewMealRepo creates a new SQLite-backed MealRepository.
func NewMealRepo(db *sql.DB) port.MealRepository {
	return &mealRepo{db: db}
}

func (r *mealRepo) Save(ctx context.Context, record *domain.MealRecord) error {
	summary, err := json.Marshal(record.Summary)
	if err != nil {
		return fmt.Errorf("mealRepo.Save marshal summary: %w", err)
	}
	segments, err := json.Marshal(record.Segments)
	if err != nil {
		return fmt.Errorf("mealRepo.Save marshal segments: %w", err)
	}

	query := `INSERT INTO meals
		(id, session_id, query, image_path, summary, segments, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		record.ID.String(), record.SessionID, record.Query, record.ImagePath,
		string(summary), string(segments), record.AnalyzedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("mealRepo.Save: %w", err)
	}
	return nil
}

func (r *mealRepo) GetByID(ctx context.Context, id string) (*domain.MealRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, session_id, query, image_path, summary, segments, analyzed_at
		 FROM meals WHERE id = ?`, id)

	record, err := scanMeal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mealRepo.GetByID: %w", err)
	}
	return record, nil
}

func (r *mealRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.MealRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, query, image_path, summary, segments, analyzed_at
		 FROM meals WHERE session_id = ?
		 ORDER BY analyzed_at DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("mealRepo.ListBySession: %w", err)
	}
	defer rows.Close()
	return collectMeals(rows)
}

func (r *mealRepo) ListAll(ctx context.Context, limit int) ([]domain.MealRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, query, image_path, summary, segments, analyzed_at
		 FROM meals ORDER BY analyzed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("mealRepo.ListAll: %w", err)
	}
	defer rows.Close()
	return collectMeals(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(row rowScanner) (*domain.MealRecord, error) {
	var (
		record       domain.MealRecord
		idStr        string
		summaryJSON  string
		segmentsJSON string
		analyzedAt   string
	)
	err := row.Scan(&idStr, &record.SessionID, &record.Query, &record.ImagePath,
		&summaryJSON, &segmentsJSON, &analyzedAt)
	if err != nil {
		return nil, err
	}
	if record.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parsing meal id: %w", err)
	}
	if record.AnalyzedAt, err = time.Parse(time.RFC3339, analyzedAt); err != nil {
		return nil, fmt.Errorf("parsing analyzed_at: %w", err)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &record.Summary); err != nil {
		return nil, fmt.Errorf("unmarshaling summary: %w", err)
	}
	if err := json.Unmarshal([]byte(segmentsJSON), &record.Segments); err != nil {
		return nil, fmt.Errorf("unmarshaling segments: %w", err)
	}
	return &record, nil
}

func collectMeals(rows *sql.Rows) ([]domain.MealRecord, error) {
	var records []domain.MealRecord
	for rows.Next() {
		record, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning meal: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meals: %w", err)
	}
	return records, nil
}
