package nbobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingletonsAreDistinctPointers(t *testing.T) {
	singletons := []*Object{True, False, Unknown, Disabled, Placeholder}
	for i, a := range singletons {
		for j, b := range singletons {
			if i == j {
				continue
			}
			assert.NotSame(t, a, b)
		}
	}
}

func TestNot(t *testing.T) {
	assert.Same(t, False, Not(True))
	assert.Same(t, True, Not(False))
	assert.Same(t, Unknown, Not(Unknown))
	assert.Same(t, Unknown, Not(Disabled))
}

func TestBool(t *testing.T) {
	assert.Same(t, True, Bool(true))
	assert.Same(t, False, Bool(false))
}

func TestIsTruthValue(t *testing.T) {
	assert.True(t, IsTruthValue(True))
	assert.True(t, IsTruthValue(False))
	assert.True(t, IsTruthValue(Unknown))
	assert.False(t, IsTruthValue(Disabled))
	assert.False(t, IsTruthValue(Placeholder))
	assert.False(t, IsTruthValue(String("x")))
}

func TestStringInterning(t *testing.T) {
	a := String("hello")
	b := String("hello")
	require.Same(t, a, b)
	assert.Equal(t, "hello", a.Str())
	assert.Equal(t, KindString, a.Kind())
}

func TestRealInterning(t *testing.T) {
	a := Real(3.25)
	b := Real(3.25)
	require.Same(t, a, b)
	assert.Equal(t, 3.25, a.Real())
	assert.Equal(t, KindReal, a.Kind())
}

func TestObjectString(t *testing.T) {
	assert.Equal(t, "true", True.String())
	assert.Equal(t, `"abc"`, String("abc").String())
	assert.Equal(t, "3.5", Real(3.5).String())
}
