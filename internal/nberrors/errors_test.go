package nberrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageFormatsByContext(t *testing.T) {
	assert.Equal(t, "syntax error: bad token", New(CodeSyntax, "bad token", nil).Error())
	assert.Equal(t, "syntax error at line 4: bad token", NewAtLine(CodeSyntax, 4, "bad token", nil).Error())
	assert.Equal(t, "reference error (a.b): undefined", NewAtTerm(CodeReference, "a.b", "undefined", nil).Error())

	both := &EngineError{Code: CodeReference, Term: "a.b", Line: 4, Message: "undefined"}
	assert.Equal(t, "reference error at a.b:4: undefined", both.Error())
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("boom")
	err := New(CodeCommand, "command failed", cause)
	assert.Same(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestIsWalksWrappedCauses(t *testing.T) {
	inner := New(CodeType, "bad type", nil)
	outer := New(CodeCommand, "wrapping", inner)
	assert.True(t, Is(outer, CodeCommand))
	assert.True(t, Is(outer, CodeType))
	assert.False(t, Is(outer, CodeCycle))
}

func TestConvenienceConstructors(t *testing.T) {
	assert.Equal(t, CodeSyntax, SyntaxError(1, "x").Code)
	assert.Equal(t, CodeReference, ReferenceError("a", "x").Code)
	assert.Equal(t, CodeType, TypeError("x").Code)
	assert.Equal(t, CodeCycle, CycleError("a").Code)
	assert.Equal(t, CodeResource, ResourceError("x").Code)
	assert.Equal(t, CodeCommand, CommandError("cmd", nil).Code)
}
