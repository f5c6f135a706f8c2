package parser

import (
	"fmt"

	"juparc/internal/core/errors"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Tree is a parsed Python source. Close releases the native tree.
type Tree struct {
	Source []byte
	tree   *sitter.Tree
}

func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Parser turns Python source into syntax trees using pooled tree-sitter parsers.
type Parser struct {
	pool *ParserPool
}

func NewParser() *Parser {
	return &Parser{pool: NewParserPool(PythonLanguage())}
}

// Parse returns a tree for source or a CodeParse error when the source is not
// valid Python. The caller owns the returned tree.
func (p *Parser) Parse(source []byte) (*Tree, error) {
	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed")
	}
	root := tree.RootNode()
	if root.HasError() {
		pos := firstErrorPosition(root)
		tree.Close()
		return nil, errors.New(errors.CodeParse, fmt.Sprintf("invalid syntax at line %d, column %d", pos.Row+1, pos.Column))
	}
	return &Tree{Source: source, tree: tree}, nil
}

func firstErrorPosition(node *sitter.Node) sitter.Point {
	if node.IsError() || node.IsMissing() {
		return node.StartPosition()
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.HasError() {
			return firstErrorPosition(child)
		}
	}
	return node.StartPosition()
}
