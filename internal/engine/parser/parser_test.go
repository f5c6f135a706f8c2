package parser

import (
	"testing"

	"juparc/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	p := NewParser()

	tree, err := p.Parse([]byte("def f(x):\n    return x + 1\n"))
	require.NoError(t, err)
	defer tree.Close()
	assert.Equal(t, "module", tree.Root().Kind())
	assert.Equal(t, uint(1), tree.Root().NamedChildCount())
}

func TestParser_ParseError(t *testing.T) {
	p := NewParser()

	tests := []string{
		"def f(:\n",
		"x = \n",
		"for in range(3):\n    pass\n",
	}
	for _, src := range tests {
		tree, err := p.Parse([]byte(src))
		assert.Nil(t, tree, src)
		require.Error(t, err, src)
		assert.True(t, errors.IsCode(err, errors.CodeParse), src)
	}
}

func TestParser_EmptySource(t *testing.T) {
	tree, err := NewParser().Parse(nil)
	require.NoError(t, err)
	defer tree.Close()
	assert.Equal(t, uint(0), tree.Root().NamedChildCount())
}
