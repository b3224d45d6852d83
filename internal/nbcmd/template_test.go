package nbcmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandSplicesBindings(t *testing.T) {
	p := NewProcessor()
	out := p.Expand("echo ${name} is ${age + 1}", map[string]any{
		"name": "alice",
		"age":  41,
	})
	assert.Equal(t, "echo alice is 42", out)
}

func TestExpandLeavesInvalidSyntaxLiteral(t *testing.T) {
	p := NewProcessor()
	out := p.Expand("echo ${(}", map[string]any{})
	assert.Equal(t, "echo ${(}", out)
}

func TestExpandReusesCachedProgram(t *testing.T) {
	p := NewProcessor()
	p.Expand("${x}", map[string]any{"x": 1})
	_, cached := p.cache["x"]
	assert.True(t, cached, "compiled program for a source text must be cached")
}

func TestExpandNoSplicesIsIdentity(t *testing.T) {
	p := NewProcessor()
	assert.Equal(t, "plain text", p.Expand("plain text", nil))
}
