package ee

import (
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"
)

// DateWindow is one [Start, End) acquisition window, both dates formatted
// YYYY-MM-DD.
type DateWindow struct {
	Start string
	End   string
}

// ParseWindows pairs start/end date lists element-wise and validates ordering.
func ParseWindows(starts, ends []string) ([]DateWindow, error) {
	if len(starts) == 0 {
		return nil, fmt.Errorf("at least one start/end date pair is required")
	}
	if len(starts) != len(ends) {
		return nil, fmt.Errorf("mismatched date lists: %d start dates, %d end dates", len(starts), len(ends))
	}
	windows := make([]DateWindow, len(starts))
	for i := range starts {
		start, err := time.Parse("2006-01-02", starts[i])
		if err != nil {
			return nil, fmt.Errorf("invalid start date %q: %v", starts[i], err)
		}
		end, err := time.Parse("2006-01-02", ends[i])
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q: %v", ends[i], err)
		}
		if !start.Before(end) {
			return nil, fmt.Errorf("start date %s is not before end date %s", starts[i], ends[i])
		}
		windows[i] = DateWindow{Start: starts[i], End: ends[i]}
	}
	return windows, nil
}

// ImageCollection loads a public image collection asset by id.
func (g *Graph) ImageCollection(id string) Node {
	return g.Invoke("ImageCollection.load", Args{"id": g.Const(id)})
}

// Geometry adds the AOI geometry as a constant GeoJSON node.
func (g *Graph) Geometry(geom *geojson.Geometry) Node {
	return g.Const(geom)
}

// FilterBounds keeps collection images intersecting the geometry node.
func (g *Graph) FilterBounds(col, geom Node) Node {
	filter := g.Invoke("Filter.intersects", Args{
		"leftField":  g.Const(".all"),
		"rightValue": geom,
	})
	return g.Invoke("Collection.filter", Args{"collection": col, "filter": filter})
}

// FilterDate keeps collection images acquired inside the window.
func (g *Graph) FilterDate(col Node, window DateWindow) Node {
	dateRange := g.Invoke("DateRange", Args{
		"start": g.Const(window.Start),
		"end":   g.Const(window.End),
	})
	filter := g.Invoke("Filter.dateRangeContains", Args{
		"leftValue":  dateRange,
		"rightField": g.Const("system:time_start"),
	})
	return g.Invoke("Collection.filter", Args{"collection": col, "filter": filter})
}

// FilterLTE keeps images whose metadata field is <= value.
func (g *Graph) FilterLTE(col Node, field string, value any) Node {
	filter := g.Invoke("Filter.lessThanOrEquals", Args{
		"leftField":  g.Const(field),
		"rightValue": g.Const(value),
	})
	return g.Invoke("Collection.filter", Args{"collection": col, "filter": filter})
}

// Merge concatenates two image collections.
func (g *Graph) Merge(col1, col2 Node) Node {
	return g.Invoke("ImageCollection.merge", Args{
		"collection1": col1,
		"collection2": col2,
	})
}

// Map applies fn to every image of the collection server-side.
func (g *Graph) Map(col Node, fn func(img Node) Node) Node {
	lambda := g.Lambda([]string{"_MAPPING_VAR_0_0"}, func(args []Node) Node {
		return fn(args[0])
	})
	return g.Invoke("Collection.map", Args{
		"collection":    col,
		"baseAlgorithm": lambda,
	})
}

// Select maps a band subset selection over the collection.
func (g *Graph) Select(col Node, bands ...string) Node {
	return g.Map(col, func(img Node) Node {
		return g.ImageSelect(img, bands...)
	})
}

// Reduce composites the collection with a no-argument reducer such as
// Reducer.mode, Reducer.mean or Reducer.median.
func (g *Graph) Reduce(col Node, reducerName string) Node {
	reducer := g.Invoke(reducerName, Args{})
	return g.Invoke("ImageCollection.reduce", Args{
		"collection": col,
		"reducer":    reducer,
	})
}

// SaveFirstJoin joins primary and secondary on equal metadata fields, storing
// the first secondary match under matchKey on each primary image.
func (g *Graph) SaveFirstJoin(primary, secondary Node, matchKey, leftField, rightField string) Node {
	join := g.Invoke("Join.saveFirst", Args{"matchKey": g.Const(matchKey)})
	condition := g.Invoke("Filter.equals", Args{
		"leftField":  g.Const(leftField),
		"rightField": g.Const(rightField),
	})
	return g.Invoke("Join.apply", Args{
		"join":      join,
		"primary":   primary,
		"secondary": secondary,
		"condition": condition,
	})
}
