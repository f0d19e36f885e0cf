package ee

import "strconv"

// Expression is the serialized form of a server-side computation, as accepted
// by the Earth Engine REST API (image:computePixels, value:compute). Values is
// a flat table of nodes keyed by opaque ids; Result points at the node whose
// evaluation is the outcome of the whole graph.
type Expression struct {
	Result string               `json:"result"`
	Values map[string]ValueNode `json:"values"`
}

// ValueNode is one node of the expression graph. Exactly one field is set.
type ValueNode struct {
	ConstantValue           any                 `json:"constantValue,omitempty"`
	ValueReference          string              `json:"valueReference,omitempty"`
	ArgumentReference       string              `json:"argumentReference,omitempty"`
	FunctionInvocationValue *FunctionInvocation `json:"functionInvocationValue,omitempty"`
	FunctionDefinitionValue *FunctionDefinition `json:"functionDefinitionValue,omitempty"`
}

type FunctionInvocation struct {
	FunctionName string               `json:"functionName"`
	Arguments    map[string]ValueNode `json:"arguments"`
}

// FunctionDefinition is a server-side lambda. Body references the node that
// computes the lambda result in terms of the named arguments.
type FunctionDefinition struct {
	ArgumentNames []string `json:"argumentNames"`
	Body          string   `json:"body"`
}

// Node references a value in a Graph.
type Node struct {
	key string
}

// Args maps invocation argument names to graph nodes.
type Args map[string]Node

// Graph accumulates expression nodes. Build the computation with Invoke,
// Const and Lambda, then seal it with Expression.
type Graph struct {
	values map[string]ValueNode
	next   int
}

func NewGraph() *Graph {
	return &Graph{values: make(map[string]ValueNode)}
}

func (g *Graph) add(v ValueNode) Node {
	key := strconv.Itoa(g.next)
	g.next++
	g.values[key] = v
	return Node{key: key}
}

// Const adds a constant value node. v must marshal to JSON.
func (g *Graph) Const(v any) Node {
	return g.add(ValueNode{ConstantValue: v})
}

// Invoke adds a call to a named server-side function.
func (g *Graph) Invoke(name string, args Args) Node {
	inv := &FunctionInvocation{
		FunctionName: name,
		Arguments:    make(map[string]ValueNode, len(args)),
	}
	for arg, node := range args {
		inv.Arguments[arg] = ValueNode{ValueReference: node.key}
	}
	return g.add(ValueNode{FunctionInvocationValue: inv})
}

// Lambda adds a function definition node. body receives one node per argument
// name and returns the node computing the lambda result.
func (g *Graph) Lambda(argNames []string, body func(args []Node) Node) Node {
	refs := make([]Node, len(argNames))
	for i, name := range argNames {
		refs[i] = g.add(ValueNode{ArgumentReference: name})
	}
	result := body(refs)
	return g.add(ValueNode{FunctionDefinitionValue: &FunctionDefinition{
		ArgumentNames: argNames,
		Body:          result.key,
	}})
}

// Expression seals the graph with result as the graph outcome.
func (g *Graph) Expression(result Node) Expression {
	values := make(map[string]ValueNode, len(g.values))
	for k, v := range g.values {
		values[k] = v
	}
	return Expression{Result: result.key, Values: values}
}
