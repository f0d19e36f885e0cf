package ee

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphConstAndInvoke(t *testing.T) {
	g := NewGraph()
	id := g.Const("GOOGLE/DYNAMICWORLD/V1")
	col := g.Invoke("ImageCollection.load", Args{"id": id})
	expr := g.Expression(col)

	assert.Equal(t, "1", expr.Result)
	require.Len(t, expr.Values, 2)

	assert.Equal(t, "GOOGLE/DYNAMICWORLD/V1", expr.Values["0"].ConstantValue)

	inv := expr.Values["1"].FunctionInvocationValue
	require.NotNil(t, inv)
	assert.Equal(t, "ImageCollection.load", inv.FunctionName)
	assert.Equal(t, "0", inv.Arguments["id"].ValueReference)
}

func TestGraphKeysAreSequential(t *testing.T) {
	g := NewGraph()
	a := g.Const(1)
	b := g.Const(2)
	sum := g.Invoke("Number.add", Args{"left": a, "right": b})
	expr := g.Expression(sum)

	assert.Equal(t, "2", expr.Result)
	assert.Equal(t, 1, expr.Values["0"].ConstantValue)
	assert.Equal(t, 2, expr.Values["1"].ConstantValue)
}

func TestGraphLambda(t *testing.T) {
	g := NewGraph()
	fn := g.Lambda([]string{"_MAPPING_VAR_0_0"}, func(args []Node) Node {
		return g.Invoke("Image.select", Args{
			"input":         args[0],
			"bandSelectors": g.Const([]any{"label"}),
		})
	})
	expr := g.Expression(fn)

	def := expr.Values[expr.Result].FunctionDefinitionValue
	require.NotNil(t, def)
	assert.Equal(t, []string{"_MAPPING_VAR_0_0"}, def.ArgumentNames)

	body := expr.Values[def.Body].FunctionInvocationValue
	require.NotNil(t, body)
	assert.Equal(t, "Image.select", body.FunctionName)

	argRef := expr.Values[body.Arguments["input"].ValueReference]
	assert.Equal(t, "_MAPPING_VAR_0_0", argRef.ArgumentReference)
}

func TestExpressionJSONShape(t *testing.T) {
	g := NewGraph()
	col := g.ImageCollection("COPERNICUS/S2_SR_HARMONIZED")
	expr := g.Expression(g.Reduce(col, "Reducer.median"))

	data, err := json.Marshal(expr)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"functionName":"ImageCollection.load"`)
	assert.Contains(t, string(data), `"functionName":"Reducer.median"`)
	assert.Contains(t, string(data), `"result"`)
	// Constant zero values must survive serialization.
	g2 := NewGraph()
	expr2 := g2.Expression(g2.Const(0))
	data2, err := json.Marshal(expr2)
	require.NoError(t, err)
	assert.Contains(t, string(data2), `"constantValue":0`)
}

func TestParseWindows(t *testing.T) {
	windows, err := ParseWindows(
		[]string{"2023-01-01", "2023-06-01"},
		[]string{"2023-02-01", "2023-07-01"},
	)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, DateWindow{Start: "2023-06-01", End: "2023-07-01"}, windows[1])

	_, err = ParseWindows([]string{"2023-01-01"}, []string{"2023-02-01", "2023-03-01"})
	assert.ErrorContains(t, err, "mismatched")

	_, err = ParseWindows([]string{"2023-03-01"}, []string{"2023-02-01"})
	assert.ErrorContains(t, err, "not before")

	_, err = ParseWindows(nil, nil)
	assert.ErrorContains(t, err, "at least one")

	_, err = ParseWindows([]string{"01/01/2023"}, []string{"2023-02-01"})
	assert.ErrorContains(t, err, "invalid start date")
}
