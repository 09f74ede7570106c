package auditdom

import (
	"fmt"
	"strings"

	"github.com/casbin/govaluate"
	"github.com/pkg/errors"
)

var functions = map[string]govaluate.ExpressionFunction{
	"lower": func(arguments ...interface{}) (interface{}, error) {
		if len(arguments) != 1 {
			return nil, errors.New("lower expects one argument")
		}
		return strings.ToLower(fmt.Sprint(arguments[0])), nil
	},
	"contains": func(arguments ...interface{}) (interface{}, error) {
		if len(arguments) != 2 {
			return nil, errors.New("contains expects two arguments")
		}
		return strings.Contains(fmt.Sprint(arguments[0]), fmt.Sprint(arguments[1])), nil
	},
}

// nodeParameters exposes an element to an expression. Unknown names resolve
// to attributes, missing attributes to an empty string.
type nodeParameters struct {
	n *node
}

func (p *nodeParameters) Get(name string) (interface{}, error) {
	if p.n == nil {
		return nil, errors.Errorf("no node bound for %q", name)
	}
	switch name {
	case "name":
		return p.n.name, nil
	case "kind":
		return p.n.kind.String(), nil
	case "text":
		return p.n.text(), nil
	}
	value, _ := firstAttr(p.n.attrs, name)
	return value, nil
}

// Expression is a compiled node predicate. It is not safe for concurrent
// use since evaluation binds the node being tested.
type Expression struct {
	expr   *govaluate.EvaluableExpression
	params *nodeParameters
}

// Compile parses a predicate over element name, kind, text and attributes.
// Besides lower(s) and contains(s, sub) it provides has(attribute) and
// attr(attribute), the latter reaching attributes shadowed by name, kind or
// text.
func Compile(expression string) (*Expression, error) {
	params := &nodeParameters{}
	bound := make(map[string]govaluate.ExpressionFunction, len(functions)+2)
	for name, fn := range functions {
		bound[name] = fn
	}
	bound["has"] = func(arguments ...interface{}) (interface{}, error) {
		if len(arguments) != 1 {
			return nil, errors.New("has expects one argument")
		}
		if params.n == nil {
			return false, nil
		}
		_, ok := firstAttr(params.n.attrs, fmt.Sprint(arguments[0]))
		return ok, nil
	}
	bound["attr"] = func(arguments ...interface{}) (interface{}, error) {
		if len(arguments) != 1 {
			return nil, errors.New("attr expects one argument")
		}
		if params.n == nil {
			return "", nil
		}
		value, _ := firstAttr(params.n.attrs, fmt.Sprint(arguments[0]))
		return value, nil
	}
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, bound)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Expression{expr: expr, params: params}, nil
}

func (e *Expression) String() string {
	return e.expr.String()
}

func eval[T any](e *Expression, n *node) (T, error) {
	var zero T
	e.params.n = n
	defer func() { e.params.n = nil }()
	response, err := e.expr.Eval(e.params)
	if err != nil {
		return zero, errors.WithStack(err)
	}
	value, ok := response.(T)
	if !ok {
		return zero, errors.Errorf("expression %q returned %T", e.expr.String(), response)
	}
	return value, nil
}

// Match reports whether the element behind h satisfies e.
func (e *Expression) Match(h *Node) (bool, error) {
	n, err := h.get()
	if err != nil {
		return false, err
	}
	return eval[bool](e, n)
}

// NodesByExpression visits the descendant elements for which expression
// evaluates to true, for example:
//
//	name == 'meta' && contains(lower([http-equiv]), 'refresh')
func (h *Node) NodesByExpression(expression string, cb Visitor) error {
	root, err := h.get()
	if err != nil {
		return err
	}
	expr, err := Compile(expression)
	if err != nil {
		return err
	}
	var evalErr error
	root.walk(func(n *node) bool {
		if n.kind != KindElement {
			return true
		}
		matched, err := eval[bool](expr, n)
		if err != nil {
			evalErr = err
			return false
		}
		if matched {
			cb(h.wrap(n))
		}
		return true
	})
	return evalErr
}
