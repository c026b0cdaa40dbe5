package testkit

import (
	"fmt"

	"typeguard/internal/ast"
	"typeguard/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed tree:
// 1) every statement span is non-empty, points at the tree's file and lies within its content
// 2) nested statements lie inside their parent statement
// 3) every expression lies inside its statement and inside its parent expression
func CheckSpanInvariants(tree *ast.Tree) error {
	if tree == nil || tree.File == nil {
		return fmt.Errorf("nil tree or file")
	}
	c := spanChecker{tree: tree, size: tree.File.Size()}
	return c.block(tree.Body, source.Span{File: tree.File.ID, End: c.size})
}

type spanChecker struct {
	tree *ast.Tree
	size uint32
}

func (c spanChecker) valid(sp source.Span, what string) error {
	if sp.File != c.tree.File.ID {
		return fmt.Errorf("%s span file mismatch: got=%d want=%d", what, sp.File, c.tree.File.ID)
	}
	if sp.Empty() || sp.End < sp.Start {
		return fmt.Errorf("empty %s span: %v", what, sp)
	}
	if sp.End > c.size {
		return fmt.Errorf("%s span end beyond content: %d > %d", what, sp.End, c.size)
	}
	return nil
}

func (c spanChecker) block(body []ast.StmtID, parent source.Span) error {
	for _, sid := range body {
		st := c.tree.Stmt(sid)
		what := "stmt " + st.Kind.String()
		if err := c.valid(st.Span, what); err != nil {
			return err
		}
		if !parent.Encloses(st.Span) {
			return fmt.Errorf("%s span %v is outside parent %v", what, st.Span, parent)
		}
		if st.Kind != ast.StmtFunctionDef && st.Kind != ast.StmtClassDef {
			for _, root := range c.tree.StmtExprs(sid) {
				if err := c.expr(root, st.Span); err != nil {
					return err
				}
			}
		}
		for _, inner := range c.tree.Blocks(sid) {
			if err := c.block(inner, st.Span); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c spanChecker) expr(id ast.ExprID, parent source.Span) error {
	x := c.tree.Expr(id)
	what := "expr " + x.Kind.String()
	if err := c.valid(x.Span, what); err != nil {
		return err
	}
	if !parent.Encloses(x.Span) {
		return fmt.Errorf("%s span %v (%q) is outside parent %v", what, x.Span, c.tree.Text(id), parent)
	}
	for _, child := range c.tree.ExprChildren(id) {
		if err := c.expr(child, x.Span); err != nil {
			return err
		}
	}
	return nil
}
