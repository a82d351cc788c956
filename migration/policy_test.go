package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeAfter(t *testing.T) {
	ids := []string{"048", "049", "050"}

	keep, next, ok, err := ResumeAfter{Count: 2}.Start(ids)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, keep)
	assert.Equal(t, "050", next)

	_, _, ok, err = ResumeAfter{Count: 3}.Start(ids)
	require.NoError(t, err)
	assert.False(t, ok, "owners with no reviews past the trusted range are left alone")

	keep, next, ok, err = ResumeAfter{}.Start(ids)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, keep)
	assert.Equal(t, "048", next)

	t.Log("the last trusted id of the default range is z")
	trusted := make([]string, DefaultResumeCount+1)
	trusted[DefaultResumeCount-1] = "122"
	_, next, ok, err = ResumeAfter{Count: DefaultResumeCount}.Start(trusted)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "048048", next)
}

func TestParseNumberingPolicy(t *testing.T) {
	p, err := ParseNumberingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, RestartNumbering{}, p)

	p, err = ParseNumberingPolicy("resume")
	require.NoError(t, err)
	assert.Equal(t, ResumeAfter{Count: DefaultResumeCount}, p)

	_, err = ParseNumberingPolicy("sometimes")
	assert.Error(t, err)
}
