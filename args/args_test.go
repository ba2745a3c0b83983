package args

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiresAtLeastOneTerminatorFlag(t *testing.T) {
	a := Args{Files: []string{"a.bin"}, Num: 6}
	err := validate(a)
	assert.Error(t, err)

	a.ROP = true
	assert.NoError(t, validate(a))
}

func TestValidateRequiresFiles(t *testing.T) {
	a := Args{Num: 6, ROP: true}
	assert.Error(t, validate(a))
}

func TestValidateRejectsBadNum(t *testing.T) {
	a := Args{Files: []string{"a.bin"}, Num: 0, ROP: true}
	assert.Error(t, validate(a))
}

func TestValidateRejectsInvalidEndPattern(t *testing.T) {
	a := Args{Files: []string{"a.bin"}, Num: 6, End: "("}
	assert.Error(t, validate(a))
}

func TestCompileEndEmptyIsNil(t *testing.T) {
	re, err := CompileEnd(Args{})
	require.NoError(t, err)
	assert.Nil(t, re)
}

func TestCompileEndNonEmpty(t *testing.T) {
	re, err := CompileEnd(Args{End: "^ret$"})
	require.NoError(t, err)
	require.NotNil(t, re)
	ok, err := re.MatchString("ret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompilePatterns(t *testing.T) {
	pats, err := CompilePatterns([]string{"^pop", "ret$"})
	require.NoError(t, err)
	assert.Len(t, pats, 2)
}

func TestCompilePatternsInvalid(t *testing.T) {
	_, err := CompilePatterns([]string{"("})
	assert.Error(t, err)
}
