package models

import "time"

// Player — участник рейтинга. Создаётся при первом появлении внешнего
// идентификатора в импорте и никогда не удаляется ядром (удаляются турниры).
type Player struct {
	ID          int       `json:"id" db:"id"`
	ExternalID  *string   `json:"external_id,omitempty" db:"external_id"`
	Name        string    `json:"name" db:"name"`
	TotalPoints int       `json:"total_points" db:"total_points"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Опциональные связанные данные (не мапятся напрямую)
	CategoryPoints []CategoryPoints     `json:"category_points,omitempty" db:"-"`
	PointsHistory  []PointsHistoryEntry `json:"points_history,omitempty" db:"-"`
}

// CategoryPoints — накопительная корзина очков игрока в одной категории.
// Уникальна для пары (player, category).
type CategoryPoints struct {
	PlayerID         int          `json:"player_id" db:"player_id"`
	CategoryID       int          `json:"category_id" db:"category_id"`
	CategoryName     string       `json:"category_name" db:"-"`
	CategoryType     CategoryType `json:"category_type" db:"-"`
	Points           int          `json:"points" db:"points"`
	TournamentsCount int          `json:"tournaments_count" db:"tournaments_count"`
	LastUpdated      time.Time    `json:"last_updated" db:"last_updated"`
}

// CategoryBreakdown — корзина игрока вместе с его рангом в категории.
type CategoryBreakdown struct {
	CategoryPoints
	Rank int `json:"rank"`
}

// TournamentHistory — начисления игрока в одном турнире, сгруппированные
// для детальной страницы.
type TournamentHistory struct {
	TournamentID   int                  `json:"tournament_id"`
	TournamentName string               `json:"tournament_name"`
	TotalPoints    int                  `json:"total_points"`
	Entries        []PointsHistoryEntry `json:"entries"`
}

// PlayerBreakdown — полная раскладка очков игрока: по категориям и по
// турнирам.
type PlayerBreakdown struct {
	Player     Player              `json:"player"`
	Categories []CategoryBreakdown `json:"categories"`
	History    []TournamentHistory `json:"history"`
}

// PointsHistoryEntry — одна запись о начислении очков, по одной на
// (игрок, турнир, категория). Единственный источник истины для отката.
type PointsHistoryEntry struct {
	ID             int          `json:"id" db:"id"`
	PlayerID       int          `json:"player_id" db:"player_id"`
	TournamentID   int          `json:"tournament_id" db:"tournament_id"`
	TournamentName string       `json:"tournament_name" db:"tournament_name"`
	CategoryID     int          `json:"category_id" db:"category_id"`
	CategoryName   string       `json:"category_name" db:"category_name"`
	CategoryType   CategoryType `json:"category_type" db:"category_type"`
	PointsEarned   int          `json:"points_earned" db:"points_earned"`
	Position       int          `json:"position" db:"position"`
	EarnedAt       time.Time    `json:"earned_at" db:"earned_at"`
}
