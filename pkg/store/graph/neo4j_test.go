package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifierAcceptsWordCharacters(t *testing.T) {
	require.NoError(t, validateIdentifier("label", "District"))
	require.NoError(t, validateIdentifier("property", "district_id"))
	require.NoError(t, validateIdentifier("relationship type", "ENROLLED_IN"))
}

func TestValidateIdentifierRejectsInjectionAttempts(t *testing.T) {
	cases := []string{
		"District) DETACH DELETE (n",
		"District {x:1})-[*]-(m",
		"",
		"has space",
		"semi;colon",
	}
	for _, c := range cases {
		err := validateIdentifier("label", c)
		assert.Errorf(t, err, "expected %q to be rejected", c)
	}
}

func TestToStringSliceExtractsStringsOnly(t *testing.T) {
	out := toStringSlice([]any{"District", "Tenant", 5})
	assert.Equal(t, []string{"District", "Tenant"}, out)
}

func TestToStringSliceHandlesNonSlice(t *testing.T) {
	assert.Nil(t, toStringSlice("not a slice"))
	assert.Nil(t, toStringSlice(nil))
}

func TestToMapHandlesNonMap(t *testing.T) {
	assert.Equal(t, map[string]any{}, toMap(nil))
	assert.Equal(t, map[string]any{}, toMap(42))
}

func TestToMapPassesThroughMap(t *testing.T) {
	in := map[string]any{"id": "abc"}
	assert.Equal(t, in, toMap(in))
}
