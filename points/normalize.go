package points

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Dosada05/racket-rankings/models"
)

// Имена колонок, ожидаемые в каждом листе.
const (
	ColumnMemberID1 = "Member ID1"
	ColumnMemberID2 = "Member ID2"
	ColumnPlayer1   = "Player1"
	ColumnPlayer2   = "Player2"
	ColumnPosition  = "Position"
	ColumnPosition2 = "Position2"
)

var (
	ErrMissingSinglesPlayer = errors.New("missing required player name for singles")
	ErrMissingDoublesPlayer = errors.New("missing required player names for doubles")
)

// ResultDraft — каноническое представление одной строки листа до
// сверки с реестром игроков.
type ResultDraft struct {
	ExternalID1 string
	ExternalID2 string
	Player1     string
	Player2     string
	Position    int
	Position2   int
}

// NormalizeRow извлекает из сырой строки листа обрезанные имена и
// идентификаторы. Position по умолчанию 0, Position2 по умолчанию
// равна Position.
func NormalizeRow(row map[string]string) ResultDraft {
	draft := ResultDraft{
		ExternalID1: strings.TrimSpace(row[ColumnMemberID1]),
		ExternalID2: strings.TrimSpace(row[ColumnMemberID2]),
		Player1:     strings.TrimSpace(row[ColumnPlayer1]),
		Player2:     strings.TrimSpace(row[ColumnPlayer2]),
	}
	draft.Position = parsePosition(row[ColumnPosition], 0)
	draft.Position2 = parsePosition(row[ColumnPosition2], draft.Position)
	return draft
}

// ValidateArity проверяет, что в строке есть имена, обязательные для
// типа категории: одно для singles, оба для doubles.
func (d ResultDraft) ValidateArity(categoryType models.CategoryType) error {
	switch categoryType {
	case models.CategoryDoubles:
		if d.Player1 == "" || d.Player2 == "" {
			return ErrMissingDoublesPlayer
		}
	default:
		if d.Player1 == "" {
			return ErrMissingSinglesPlayer
		}
	}
	return nil
}

func parsePosition(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	// Excel часто отдаёт целые как "3.0"; ParseFloat покрывает оба случая.
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f)
	}
	return fallback
}
