package services

import (
	"context"
	"errors"
	"net"

	"github.com/lib/pq"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации импорта (до транзакции)
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrWorkbookEmpty          = errors.New("workbook contains no sheets")
	ErrNoValidResults         = errors.New("no valid players found in any category")

	// Ошибки конфликтов (фатальны для всего импорта)
	ErrDuplicateFileName    = errors.New("a tournament with this file name has already been uploaded")
	ErrDuplicateFileContent = errors.New("this exact file has already been uploaded previously")

	// Ошибки "не найдено"
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrPlayerNotFound     = errors.New("player not found")

	// Прочие ошибки запросов
	ErrInvalidCategoryType = errors.New("category type must be either singles or doubles")
	ErrSearchQueryRequired = errors.New("search query is required")

	// Аутентификация
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
)

// Классификация ошибок хранилища: вызывающий получает общую категорию
// вместо сырой ошибки драйвера.
var (
	ErrStorageConnectivity = errors.New("database connection issue, please try again")
	ErrStorageTimeout      = errors.New("operation timed out, please try with a smaller file")
	ErrStorageConstraint   = errors.New("storage constraint violation")
	ErrStorageUnknown      = errors.New("storage failure")
)

// classifyStorageError сворачивает ошибку драйвера/сети в одну из четырёх
// категорий. Доменные ошибки (sentinel) проходят без изменений.
func classifyStorageError(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrStorageTimeout, err)
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return errors.Join(ErrStorageTimeout, err)
		}
		return errors.Join(ErrStorageConnectivity, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08": // connection exceptions
			return errors.Join(ErrStorageConnectivity, err)
		case "57": // operator intervention (incl. statement timeout cancel)
			return errors.Join(ErrStorageTimeout, err)
		case "23": // integrity constraint violations
			return errors.Join(ErrStorageConstraint, err)
		}
		return errors.Join(ErrStorageUnknown, err)
	}

	return err
}
