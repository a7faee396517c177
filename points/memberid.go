package points

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// GeneratedIDPrefix помечает синтетические идентификаторы, выданные
// импортом строкам без Member ID.
const GeneratedIDPrefix = "GEN"

const maxGenerationAttempts = 10

// ErrGenerationExhausted возвращается, когда за отведённое число попыток
// не удалось получить свободный идентификатор. Отклоняет строку, не импорт.
var ErrGenerationExhausted = errors.New("member id generation exhausted")

// MemberIDGenerator выдаёт синтетические членские идентификаторы в рамках
// одного импорта. Одно и то же имя игрока в пределах импорта получает один
// и тот же идентификатор. Генератор не потокобезопасен: обращаться к нему
// должна только последовательная фаза слияния сессии импорта.
type MemberIDGenerator struct {
	rng      *rand.Rand
	byName   map[string]string
	issued   map[string]struct{}
	existing func(id string) bool
}

// NewMemberIDGenerator создаёт генератор. existing сообщает, занят ли
// идентификатор в долговременном реестре игроков; nil означает "никогда".
func NewMemberIDGenerator(existing func(id string) bool) *MemberIDGenerator {
	return NewMemberIDGeneratorWithSource(rand.NewSource(time.Now().UnixNano()), existing)
}

// NewMemberIDGeneratorWithSource позволяет тестам подставить свой источник
// случайности.
func NewMemberIDGeneratorWithSource(src rand.Source, existing func(id string) bool) *MemberIDGenerator {
	if existing == nil {
		existing = func(string) bool { return false }
	}
	return &MemberIDGenerator{
		rng:      rand.New(src),
		byName:   make(map[string]string),
		issued:   make(map[string]struct{}),
		existing: existing,
	}
}

// GetOrGenerate возвращает идентификатор, выданный этому имени ранее в
// текущем импорте, либо синтезирует новый: GEN + 11 десятичных цифр,
// с проверкой коллизий и в реестре, и среди уже выданных.
func (g *MemberIDGenerator) GetOrGenerate(playerName string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(playerName))
	if id, ok := g.byName[key]; ok {
		return id, nil
	}

	for attempt := 0; attempt < maxGenerationAttempts; attempt++ {
		id := g.randomMemberID()
		if g.existing(id) {
			continue
		}
		if _, taken := g.issued[id]; taken {
			continue
		}
		g.byName[key] = id
		g.issued[id] = struct{}{}
		return id, nil
	}
	return "", fmt.Errorf("%w: player %q", ErrGenerationExhausted, playerName)
}

func (g *MemberIDGenerator) randomMemberID() string {
	// 11-значное число в [10^10, 10^11).
	n := int64(10_000_000_000) + g.rng.Int63n(90_000_000_000)
	return fmt.Sprintf("%s%d", GeneratedIDPrefix, n)
}
