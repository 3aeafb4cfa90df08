package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAndEvalSimpleComparison(t *testing.T) {
	p, err := Compile("age >= 5 AND age <= 22")
	require.NoError(t, err)

	ok, err := p.Eval(map[string]any{"age": 10.0})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Eval(map[string]any{"age": 2.0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileAndEvalOrNot(t *testing.T) {
	p, err := Compile("NOT (status = 'inactive' OR status = 'deleted')")
	require.NoError(t, err)

	ok, err := p.Eval(map[string]any{"status": "active"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Eval(map[string]any{"status": "deleted"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileAndEvalNotEquals(t *testing.T) {
	p, err := Compile("grade != 'F'")
	require.NoError(t, err)
	ok, err := p.Eval(map[string]any{"grade": "A"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalNullOperandOnlySupportsEquality(t *testing.T) {
	p, err := Compile("withdrawn_date = 'null'")
	require.NoError(t, err)
	ok, err := p.Eval(map[string]any{"withdrawn_date": nil})
	require.NoError(t, err)
	assert.False(t, ok, "nil never equals the string literal \"null\"")
}

func TestCompileRejectsMalformedExpression(t *testing.T) {
	_, err := Compile("age >=")
	assert.Error(t, err)
}

func TestCompileRejectsTrailingTokens(t *testing.T) {
	_, err := Compile("age >= 5 5")
	assert.Error(t, err)
}
