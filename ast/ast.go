package ast

import (
	"fmt"
	"strings"
)

// Node is implemented by every tree node. The unexported marker keeps the set closed.
type Node interface {
	node()
	String() string
}

// Program is the root of the tree: exactly one function.
type Program struct {
	Function *Function `json:"function"`
}

// Function is `int <Name>(void) { <Body> }`.
type Function struct {
	Name string    `json:"name"`
	Body Statement `json:"body"`
	Line int       `json:"line"`
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Return is `return <Value>;`.
type Return struct {
	Value Expression `json:"value"`
	Line  int        `json:"line"`
}

type Constant struct {
	Value int64 `json:"value"`
	Line  int   `json:"line"`
}

func (*Program) node()  {}
func (*Function) node() {}
func (*Return) node()   {}
func (*Constant) node() {}

func (*Return) statementNode()    {}
func (*Constant) expressionNode() {}

func (p *Program) String() string {
	var b strings.Builder
	b.WriteString("Program(\n")
	if p.Function != nil {
		for _, line := range strings.Split(p.Function.String(), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString(")")
	return b.String()
}

func (f *Function) String() string {
	body := "<nil>"
	if f.Body != nil {
		body = f.Body.String()
	}
	return fmt.Sprintf("Function(\n  name=%s,\n  body=%s\n)", f.Name, body)
}

func (r *Return) String() string {
	if r.Value == nil {
		return "Return(<nil>)"
	}
	return fmt.Sprintf("Return(%s)", r.Value)
}

func (c *Constant) String() string {
	return fmt.Sprintf("Constant(%d)", c.Value)
}

// Equal compares two programs structurally. Line numbers are ignored.
func (p *Program) Equal(other *Program) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.Function == nil || other.Function == nil {
		return p.Function == other.Function
	}
	if p.Function.Name != other.Function.Name {
		return false
	}
	return statementsEqual(p.Function.Body, other.Function.Body)
}

func statementsEqual(a, b Statement) bool {
	switch a := a.(type) {
	case *Return:
		b, ok := b.(*Return)
		return ok && expressionsEqual(a.Value, b.Value)
	case nil:
		return b == nil
	default:
		return false
	}
}

func expressionsEqual(a, b Expression) bool {
	switch a := a.(type) {
	case *Constant:
		b, ok := b.(*Constant)
		return ok && a.Value == b.Value
	case nil:
		return b == nil
	default:
		return false
	}
}
