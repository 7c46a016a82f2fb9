package rulestore

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rota/internal/compiler"
	"github.com/roach88/rota/internal/ir"
)

func fixture(name string) string {
	return filepath.Join("..", "..", "testdata", "rules", name)
}

func TestLoadFixture(t *testing.T) {
	s, err := Load(fixture("rules.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5, s.Len())
	assert.Equal(t, ir.DefaultWorkPositions, s.Positions())
	assert.Equal(t, []string{"Expo", "Conductor"}, s.Strategy().FocusOnConsistencyFor)
	assert.Equal(t, fixture("rules.yaml"), s.Source())
	assert.Len(t, s.Hash(), 64)
}

func TestLoadYAMLAndCUEShareHash(t *testing.T) {
	fromYAML, err := Load(fixture("rules.yaml"))
	require.NoError(t, err)
	fromCUE, err := Load(fixture("rules.cue"))
	require.NoError(t, err)

	assert.Equal(t, fromYAML.Hash(), fromCUE.Hash())
	assert.NotEqual(t, fromYAML.Source(), fromCUE.Source())
}

func TestLoadFailsClosed(t *testing.T) {
	s, err := LoadBytes("rules.yaml", []byte(`
position_rules:
  - position: Expo
    max_consecutive_slots: 4
  - position: [Line Buster 1, Line Buster 2]
    max_consecutive_slots_in_group: 0
`))
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, compiler.IsConfigError(err))
	assert.True(t, compiler.HasCode(err, compiler.ErrNonPositiveLimit))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, compiler.HasCode(err, compiler.ErrUnreadableDocument))
}

func TestRulesApplicableTo(t *testing.T) {
	s, err := Load(fixture("rules.yaml"))
	require.NoError(t, err)

	lb2 := s.RulesApplicableTo("Line Buster 2")
	require.Len(t, lb2, 2)
	assert.Equal(t, 3, lb2[0].Index)
	assert.Equal(t, 4, lb2[1].Index)

	conductor := s.RulesApplicableTo("  Conductor ")
	require.Len(t, conductor, 1)
	assert.True(t, conductor[0].MustStartOnHour)

	assert.Empty(t, s.RulesApplicableTo("Handout"))
	assert.NotNil(t, s.RulesApplicableTo("Handout"))
	assert.Empty(t, s.RulesApplicableTo("Nowhere"))
}

func TestAccessorsReturnCopies(t *testing.T) {
	s, err := Load(fixture("rules.yaml"))
	require.NoError(t, err)

	rules := s.Rules()
	rules[3].Positions[0] = "Mutated"
	*rules[3].Window.End = ir.Clock(1, 0)
	rules[0].MaxConsecutiveSlots = 99

	fresh := s.Rules()
	assert.Equal(t, "Line Buster 1", fresh[3].Positions[0])
	assert.Equal(t, ir.Clock(12, 30), *fresh[3].Window.End)
	assert.Equal(t, 2, fresh[0].MaxConsecutiveSlots)

	strategy := s.Strategy()
	strategy.FocusOnConsistencyFor[0] = "Mutated"
	assert.Equal(t, "Expo", s.Strategy().FocusOnConsistencyFor[0])

	positions := s.Positions()
	positions[0] = "Mutated"
	assert.Equal(t, "Handout", s.Positions()[0])
}

func TestNewRenumbersAndValidates(t *testing.T) {
	s, err := New(ir.RuleSet{
		Rules: []ir.PositionRule{
			{Index: 42, Positions: []string{" Expo "}, MaxConsecutiveSlots: 3},
			{Index: 7, Positions: []string{"Conductor"}, MaxConsecutiveSlots: 2},
		},
	})
	require.NoError(t, err)

	rules := s.Rules()
	assert.Equal(t, 0, rules[0].Index)
	assert.Equal(t, 1, rules[1].Index)
	assert.Equal(t, []string{"Expo"}, rules[0].Positions)
	assert.Len(t, s.RulesApplicableTo("Expo"), 1)

	_, err = New(ir.RuleSet{
		Rules: []ir.PositionRule{{Positions: []string{"Expo"}, MaxConsecutiveSlots: 0}},
	})
	require.Error(t, err)
	assert.True(t, compiler.HasCode(err, compiler.ErrNonPositiveLimit))
}

func TestNewDoesNotAliasCallerSet(t *testing.T) {
	set := ir.RuleSet{
		Rules: []ir.PositionRule{{Positions: []string{"Expo"}, MaxConsecutiveSlots: 3}},
	}
	s, err := New(set)
	require.NoError(t, err)

	set.Rules[0].Positions[0] = "Changed"
	assert.Equal(t, "Expo", s.Rules()[0].Positions[0])
}

func TestConcurrentReaders(t *testing.T) {
	s, err := Load(fixture("rules.yaml"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, p := range ir.DefaultWorkPositions {
				_ = s.RulesApplicableTo(p)
			}
			_ = s.Rules()
			_ = s.Hash()
		}()
	}
	wg.Wait()
}
