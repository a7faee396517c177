package services

import (
	"github.com/Dosada05/racket-rankings/models"
	"github.com/Dosada05/racket-rankings/points"
)

// deltaKey идентифицирует накопитель очков внутри одного импорта. Ключ
// строится на внешнем идентификаторе, потому что у застейдженных игроков
// ещё нет долговременных id.
type deltaKey struct {
	externalID   string
	categoryName string
}

// pointsDelta — накопитель очков пары (игрок, категория) в рамках импорта.
// Игрок, встречающийся в категории несколько раз, суммируется здесь до
// единственной записи в леджер.
type pointsDelta struct {
	player    *models.Player
	category  *models.Category
	points    int
	positions []int
}

func (d *pointsDelta) minPosition() int {
	min := 0
	for i, p := range d.positions {
		if i == 0 || p < min {
			min = p
		}
	}
	return min
}

// importSession — арена одного импорта: кэш сверки идентичностей, кэш
// категорий, журнал генерации членских идентификаторов и накопитель
// очковых дельт. Все мутации происходят в последовательной фазе слияния;
// параллельные воркеры строк сюда не пишут.
type importSession struct {
	players    map[string]*models.Player   // externalID → игрок (существующий или застейдженный)
	categories map[string]*models.Category // имя категории → категория

	pendingPlayers    []*models.Player
	pendingCategories []*models.Category
	correctedTypes    map[*models.Category]models.CategoryType

	createdPlayers    []models.CreatedPlayer
	createdCategories []models.CreatedCategory

	deltas     map[deltaKey]*pointsDelta
	deltaOrder []deltaKey

	idGen  *points.MemberIDGenerator
	errors []models.RowError
}

func newImportSession(existingPlayers []models.Player, existingCategories []models.Category) *importSession {
	s := &importSession{
		players:        make(map[string]*models.Player, len(existingPlayers)),
		categories:     make(map[string]*models.Category, len(existingCategories)),
		correctedTypes: make(map[*models.Category]models.CategoryType),
		deltas:         make(map[deltaKey]*pointsDelta),
	}
	for i := range existingPlayers {
		p := &existingPlayers[i]
		if p.ExternalID != nil && *p.ExternalID != "" {
			s.players[*p.ExternalID] = p
		}
	}
	for i := range existingCategories {
		c := &existingCategories[i]
		s.categories[c.Name] = c
	}
	s.idGen = points.NewMemberIDGenerator(func(id string) bool {
		_, taken := s.players[id]
		return taken
	})
	return s
}

// categoryFor возвращает категорию для листа, лениво стейджа новую либо
// помечая существующую для коррекции типа, если он определился иначе.
func (s *importSession) categoryFor(sheetName string, detected models.CategoryType, tournamentName string) *models.Category {
	if c, ok := s.categories[sheetName]; ok {
		if c.Type != detected {
			s.correctedTypes[c] = detected
			c.Type = detected
		}
		return c
	}

	description := sheetName + " " + string(detected) + " category for " + tournamentName + " tournament"
	c := &models.Category{Name: sheetName, Type: detected, Description: &description}
	s.categories[sheetName] = c
	s.pendingCategories = append(s.pendingCategories, c)
	return c
}

// resolveOrStage возвращает существующего игрока по внешнему идентификатору
// либо стейджит нового с нулевым леджером. Ничего долговременного до
// коммита транзакции импорта.
func (s *importSession) resolveOrStage(externalID, name, categoryName string) *models.Player {
	if p, ok := s.players[externalID]; ok {
		return p
	}

	id := externalID
	p := &models.Player{ExternalID: &id, Name: name}
	s.players[externalID] = p
	s.pendingPlayers = append(s.pendingPlayers, p)
	s.createdPlayers = append(s.createdPlayers, models.CreatedPlayer{
		ExternalID:  externalID,
		Name:        name,
		Category:    categoryName,
		GeneratedID: isGeneratedID(externalID),
	})
	return p
}

// accumulate прибавляет очки игрока в категории к дельте текущего импорта.
func (s *importSession) accumulate(p *models.Player, c *models.Category, pts, position int) {
	key := deltaKey{externalID: derefExternalID(p), categoryName: c.Name}
	d, ok := s.deltas[key]
	if !ok {
		d = &pointsDelta{player: p, category: c}
		s.deltas[key] = d
		s.deltaOrder = append(s.deltaOrder, key)
	}
	d.points += pts
	d.positions = append(d.positions, position)
}

func (s *importSession) addRowError(category string, rowIndex int, message string) {
	// Номер строки указывается как в файле: +1 за заголовок, +1 за 1-based.
	s.errors = append(s.errors, models.RowError{
		Category: category,
		Row:      rowIndex + 2,
		Message:  message,
	})
}

// orderedDeltas возвращает дельты в детерминированном порядке появления.
func (s *importSession) orderedDeltas() []*pointsDelta {
	out := make([]*pointsDelta, 0, len(s.deltaOrder))
	for _, key := range s.deltaOrder {
		out = append(out, s.deltas[key])
	}
	return out
}

func derefExternalID(p *models.Player) string {
	if p.ExternalID == nil {
		return ""
	}
	return *p.ExternalID
}

func isGeneratedID(id string) bool {
	return len(id) > len(points.GeneratedIDPrefix) && id[:len(points.GeneratedIDPrefix)] == points.GeneratedIDPrefix
}
