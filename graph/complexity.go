package graph

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// DefaultMaxDepth is the selection depth allowed when none is configured.
const DefaultMaxDepth = 10

// Operation summarises a parsed query document for limits and metrics.
type Operation struct {
	// Kind is "query", "mutation" or "subscription".
	Kind  string
	Name  string
	Depth int
}

// Label names the operation for metrics: its name, or its kind when anonymous.
func (o Operation) Label() string {
	if o.Name != "" {
		return o.Name
	}
	return o.Kind
}

// AnalyzeQuery parses query and reports the operation that operationName
// selects. Documents that fail to parse return an error; the executor reports
// the same problem in its own words, so callers may ignore it.
func AnalyzeQuery(query, operationName string) (Operation, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return Operation{}, err
	}

	op := selectOperation(doc.Operations, operationName)
	if op == nil {
		return Operation{}, fmt.Errorf("operation %q not found", operationName)
	}
	return Operation{
		Kind:  string(op.Operation),
		Name:  op.Name,
		Depth: calculateQueryDepth(op, doc.Fragments),
	}, nil
}

func selectOperation(ops ast.OperationList, name string) *ast.OperationDefinition {
	if name == "" {
		if len(ops) == 0 {
			return nil
		}
		return ops[0]
	}
	return ops.ForName(name)
}

// calculateQueryDepth walks the selected operation and returns its maximum
// selection depth. Depth is counted from field selections (not from operation root).
func calculateQueryDepth(op *ast.OperationDefinition, fragments ast.FragmentDefinitionList) int {
	return selectionSetDepth(op.SelectionSet, fragments, map[string]bool{})
}

func selectionSetDepth(set ast.SelectionSet, fragments ast.FragmentDefinitionList, visiting map[string]bool) int {
	maxDepth := 0
	for _, sel := range set {
		var childDepth int
		switch s := sel.(type) {
		case *ast.Field:
			childDepth = 1
			if s.SelectionSet != nil {
				childDepth += selectionSetDepth(s.SelectionSet, fragments, visiting)
			}
		case *ast.InlineFragment:
			childDepth = selectionSetDepth(s.SelectionSet, fragments, visiting)
		case *ast.FragmentSpread:
			// cycles are invalid; the executor rejects them
			if visiting[s.Name] {
				continue
			}
			def := fragments.ForName(s.Name)
			if def == nil {
				continue
			}
			visiting[s.Name] = true
			childDepth = selectionSetDepth(def.SelectionSet, fragments, visiting)
			delete(visiting, s.Name)
		}
		if childDepth > maxDepth {
			maxDepth = childDepth
		}
	}
	return maxDepth
}
