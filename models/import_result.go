package models

// Статусы обработки листа внутри одного импорта.
const (
	SheetStatusProcessed = "processed"
	SheetStatusSkipped   = "skipped"
	SheetStatusEmpty     = "empty"
)

// RowError — ошибка обработки одной строки. Не фатальна для импорта в целом.
type RowError struct {
	Category string `json:"category"`
	Row      int    `json:"row"`
	Message  string `json:"message"`
}

// CategoryStats — итог обработки одного листа (категории).
type CategoryStats struct {
	CategoryName     string       `json:"category_name"`
	CategoryType     CategoryType `json:"category_type,omitempty"`
	PlayersProcessed int          `json:"players_processed"`
	Errors           int          `json:"errors"`
	Status           string       `json:"status"`
}

// CreatedPlayer описывает игрока, заведённого этим импортом.
type CreatedPlayer struct {
	ExternalID  string `json:"external_id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	GeneratedID bool   `json:"generated_id"`
}

// CreatedCategory описывает категорию, заведённую этим импортом.
type CreatedCategory struct {
	ID   int          `json:"id"`
	Name string       `json:"name"`
	Type CategoryType `json:"type"`
}

// ImportResult — сводка успешного импорта, отдаётся тонкому HTTP-слою.
type ImportResult struct {
	Tournament        ImportedTournament `json:"tournament"`
	Categories        []CategoryStats    `json:"categories"`
	CreatedCategories []CreatedCategory  `json:"created_categories,omitempty"`
	CreatedPlayers    []CreatedPlayer    `json:"created_players,omitempty"`
	Errors            []RowError         `json:"errors,omitempty"`
}

type ImportedTournament struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	PlayersCount        int    `json:"players_count"`
	CategoriesProcessed int    `json:"categories_processed"`
	OriginalFileName    string `json:"original_file_name"`
}
