package points

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemberIDGeneratorFormat(t *testing.T) {
	gen := NewMemberIDGeneratorWithSource(rand.NewSource(1), nil)

	id, err := gen.GetOrGenerate("Alice")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(id, GeneratedIDPrefix))
	require.Len(t, id, len(GeneratedIDPrefix)+11)
}

func TestMemberIDGeneratorSameNameSameID(t *testing.T) {
	gen := NewMemberIDGeneratorWithSource(rand.NewSource(1), nil)

	first, err := gen.GetOrGenerate("Alice")
	require.NoError(t, err)
	second, err := gen.GetOrGenerate("  alice ")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestMemberIDGeneratorDistinctNamesDistinctIDs(t *testing.T) {
	// Источник с одним и тем же зерном не должен выдать один идентификатор
	// двум разным игрокам: реестр выданных обязан отловить коллизию.
	gen := NewMemberIDGeneratorWithSource(rand.NewSource(42), nil)

	seen := make(map[string]struct{})
	for _, name := range []string{"Alice", "Bob", "Carol", "Dana", "Eve"} {
		id, err := gen.GetOrGenerate(name)
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "id %s issued twice", id)
		seen[id] = struct{}{}
	}
}

func TestMemberIDGeneratorChecksDurableCache(t *testing.T) {
	gen := NewMemberIDGeneratorWithSource(rand.NewSource(7), func(string) bool { return true })

	_, err := gen.GetOrGenerate("Alice")
	require.ErrorIs(t, err, ErrGenerationExhausted)
}

func TestMemberIDGeneratorExhaustionDoesNotPoisonLedger(t *testing.T) {
	calls := 0
	gen := NewMemberIDGeneratorWithSource(rand.NewSource(7), func(string) bool {
		calls++
		return calls <= maxGenerationAttempts
	})

	_, err := gen.GetOrGenerate("Alice")
	require.ErrorIs(t, err, ErrGenerationExhausted)

	// Следующая строка с другим именем должна сгенерироваться нормально.
	id, err := gen.GetOrGenerate("Bob")
	require.NoError(t, err)
	require.NotEmpty(t, id)
}
