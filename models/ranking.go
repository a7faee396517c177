package models

// Pagination — постраничная навигация. Применяется всегда ПОСЛЕ
// ранжирования, никогда до него.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalCount  int  `json:"total_count"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

// RankedPlayer — строка рейтинга. Rank присваивается по схеме competition
// ranking: равные очки делят ранг, следующий отличный результат получает
// ранг, равный своей позиции в отсортированном списке.
type RankedPlayer struct {
	Rank             int     `json:"rank"`
	PlayerID         int     `json:"player_id"`
	ExternalID       *string `json:"external_id,omitempty"`
	Name             string  `json:"name"`
	TotalPoints      int     `json:"total_points"`
	Points           int     `json:"points"`
	TournamentsCount int     `json:"tournaments_count,omitempty"`
	Position         int     `json:"position,omitempty"`
	DisplayPosition  string  `json:"display_position,omitempty"`
	PartnerName      *string `json:"partner_name,omitempty"`
}

// OverallRankings — глобальный рейтинг по суммарным очкам.
type OverallRankings struct {
	Players    []RankedPlayer `json:"players"`
	Pagination Pagination     `json:"pagination"`
}

// CategoryRankings — рейтинг внутри одной категории.
type CategoryRankings struct {
	Category   Category       `json:"category"`
	Players    []RankedPlayer `json:"players"`
	Pagination Pagination     `json:"pagination"`
}

// TournamentRankings — рейтинг по одному турниру (все категории, с
// необязательным фильтром по типу категории).
type TournamentRankings struct {
	Tournament Tournament     `json:"tournament"`
	Players    []RankedPlayer `json:"players"`
	Pagination Pagination     `json:"pagination"`
}

// TournamentCategoryRankings — рейтинг одной категории одного турнира.
// Парные результаты разворачиваются в две строки.
type TournamentCategoryRankings struct {
	Tournament Tournament     `json:"tournament"`
	Category   Category       `json:"category"`
	Players    []RankedPlayer `json:"players"`
	Pagination Pagination     `json:"pagination"`
}

// TypeRankings — рейтинг по типу категорий (singles/doubles), очки
// суммируются по всем категориям этого типа.
type TypeRankings struct {
	Type       CategoryType   `json:"type"`
	Players    []RankedPlayer `json:"players"`
	Pagination Pagination     `json:"pagination"`
}
