package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bild/internal/core/domain"
	"go.trai.ch/zerr"
)

func metadata(t *testing.T, err error) map[string]any {
	t.Helper()
	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	return zErr.Metadata()
}

func TestPlan_DeclarationOrder(t *testing.T) {
	r := domain.NewRegistry()
	require.NoError(t, r.Register("parser", noop))
	require.NoError(t, r.Register("compile", noop, "parser"))
	require.NoError(t, r.Register("resources", noop))
	require.NoError(t, r.Register("mkjar", noop, "compile", "resources"))

	order, err := r.Plan("mkjar")
	require.NoError(t, err)
	assert.Equal(t, []string{"parser", "compile", "resources", "mkjar"}, domain.Strings(order))
}

func TestPlan_Diamond(t *testing.T) {
	r := domain.NewRegistry()
	require.NoError(t, r.Register("D", noop))
	require.NoError(t, r.Register("B", noop, "D"))
	require.NoError(t, r.Register("C", noop, "D"))
	require.NoError(t, r.Register("A", noop, "B", "C"))

	order, err := r.Plan("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "B", "C", "A"}, domain.Strings(order))
}

func TestPlan_OnlyTransitiveClosure(t *testing.T) {
	r := domain.NewRegistry()
	require.NoError(t, r.Register("parser", noop))
	require.NoError(t, r.Register("clean", noop))

	order, err := r.Plan("parser")
	require.NoError(t, err)
	assert.Equal(t, []string{"parser"}, domain.Strings(order))
}

func TestPlan_UnknownRoot(t *testing.T) {
	r := domain.NewRegistry()

	_, err := r.Plan("deploy")
	require.ErrorIs(t, err, domain.ErrUnknownTask)
	assert.Equal(t, "deploy", metadata(t, err)["task"])
}

func TestPlan_UnknownPrerequisite(t *testing.T) {
	r := domain.NewRegistry()
	require.NoError(t, r.Register("compile", noop, "parser"))

	_, err := r.Plan("compile")
	require.ErrorIs(t, err, domain.ErrUnknownTask)

	meta := metadata(t, err)
	assert.Equal(t, "parser", meta["task"])
	assert.Equal(t, "compile", meta["required_by"])
}

func TestPlan_Cycle(t *testing.T) {
	r := domain.NewRegistry()
	require.NoError(t, r.Register("a", noop, "b"))
	require.NoError(t, r.Register("b", noop, "a"))

	_, err := r.Plan("a")
	require.ErrorIs(t, err, domain.ErrCyclicDependency)
	assert.Equal(t, "a -> b -> a", metadata(t, err)["cycle"])
}

func TestPlan_SelfCycle(t *testing.T) {
	r := domain.NewRegistry()
	require.NoError(t, r.Register("a", noop, "a"))

	_, err := r.Plan("a")
	require.ErrorIs(t, err, domain.ErrCyclicDependency)
	assert.Equal(t, "a -> a", metadata(t, err)["cycle"])
}

func TestCyclePath(t *testing.T) {
	path := domain.NewInternedStrings([]string{"all", "mkjar", "compile", "parser"})

	got := domain.CyclePath(path, domain.NewInternedString("compile"))
	assert.Equal(t, "compile -> parser -> compile", got)
}
