package models

import "time"

// Tournament — импортированный турнир вместе со всеми результатами.
// originalFileName и contentDigest — уникальные ограничения для
// обнаружения повторной загрузки того же файла.
type Tournament struct {
	ID               int       `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Location         *string   `json:"location,omitempty" db:"location"`
	StartDate        time.Time `json:"start_date" db:"start_date"`
	EndDate          time.Time `json:"end_date" db:"end_date"`
	OriginalFileName string    `json:"original_file_name" db:"original_file_name"`
	ContentDigest    string    `json:"-" db:"content_digest"`
	ArchiveKey       *string   `json:"-" db:"archive_key"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Categories []Category    `json:"categories,omitempty" db:"-"`
	Results    []ResultEntry `json:"results,omitempty" db:"-"`
}

// TournamentStatistics — сводные показатели турнира для детальной страницы.
type TournamentStatistics struct {
	TotalPlayers    int `json:"total_players"`
	TotalCategories int `json:"total_categories"`
	TotalResults    int `json:"total_results"`
	SinglesEntries  int `json:"singles_entries"`
	DoublesEntries  int `json:"doubles_entries"`
}

// TournamentDetail — турнир с категориями, результатами и статистикой.
type TournamentDetail struct {
	Tournament
	Statistics TournamentStatistics `json:"statistics"`
}

// FileCheckResult — ответ на предварительную проверку файла перед
// загрузкой: занят ли он по имени либо по содержимому.
type FileCheckResult struct {
	Unique   bool        `json:"unique"`
	Reason   string      `json:"reason,omitempty"` // "file_name" либо "content"
	Existing *Tournament `json:"existing,omitempty"`
}

// ResultEntry — одна строка результата внутри турнира. Неизменяема после
// коммита импорта. Для парных категорий заполняются поля второго игрока.
type ResultEntry struct {
	ID           int          `json:"id" db:"id"`
	TournamentID int          `json:"tournament_id" db:"tournament_id"`
	CategoryID   int          `json:"category_id" db:"category_id"`
	CategoryType CategoryType `json:"category_type" db:"category_type"`
	Position     int          `json:"position" db:"position"`
	Position2    *int         `json:"position2,omitempty" db:"position2"`
	Player1ID    int          `json:"player1_id" db:"player1_id"`
	Player2ID    *int         `json:"player2_id,omitempty" db:"player2_id"`
	ExternalID1  string       `json:"external_id1" db:"external_id1"`
	ExternalID2  *string      `json:"external_id2,omitempty" db:"external_id2"`
	Player1Name  string       `json:"player1_name" db:"player1_name"`
	Player2Name  *string      `json:"player2_name,omitempty" db:"player2_name"`
}
