package domain_test

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bild/internal/core/domain"
)

func TestInternedString(t *testing.T) {
	is1 := domain.NewInternedString("compile")
	is2 := domain.NewInternedString("compile")

	assert.Equal(t, is1, is2, "identical strings must intern to the same handle")
	assert.Equal(t, "compile", is1.String())
	assert.False(t, is1.IsZero())

	var zero domain.InternedString
	assert.True(t, zero.IsZero())
	assert.Empty(t, zero.String())
}

func TestInternedStringCompare(t *testing.T) {
	names := domain.NewInternedStrings([]string{"tests", "compile", "parser"})
	slices.SortFunc(names, domain.InternedString.Compare)

	assert.Equal(t, []string{"compile", "parser", "tests"}, domain.Strings(names))
}

func TestInternedStringJSON(t *testing.T) {
	type taskRef struct {
		Name domain.InternedString `json:"name"`
	}

	data, err := json.Marshal(taskRef{Name: domain.NewInternedString("mkjar")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"mkjar"}`, string(data))

	var decoded taskRef
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, domain.NewInternedString("mkjar"), decoded.Name)
}

func TestNewInternedStrings(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		in := []string{"parser", "compile", "mkjar"}
		assert.Equal(t, in, domain.Strings(domain.NewInternedStrings(in)))
	})

	t.Run("empty slice", func(t *testing.T) {
		assert.Empty(t, domain.NewInternedStrings(nil))
	})

	t.Run("duplicates share a handle", func(t *testing.T) {
		out := domain.NewInternedStrings([]string{"task", "task"})
		assert.Equal(t, out[0], out[1])
	})
}
