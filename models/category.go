package models

import "time"

// CategoryType соответствует ENUM category_type в БД.
type CategoryType string

const (
	CategorySingles CategoryType = "singles"
	CategoryDoubles CategoryType = "doubles"
)

func (t CategoryType) Valid() bool {
	return t == CategorySingles || t == CategoryDoubles
}

// Category — соревновательная дисциплина (например, "MS", "WD").
// Создаётся лениво при первом упоминании в импортируемом файле.
type Category struct {
	ID          int          `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Type        CategoryType `json:"type" db:"type"`
	Description *string      `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}
