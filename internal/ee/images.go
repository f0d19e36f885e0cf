package ee

// Image algebra wrappers. These only assemble server-side function calls; no
// pixel math happens locally.

// ImageSelect subsets image bands. Selectors may be band names or regexes
// such as "B.*".
func (g *Graph) ImageSelect(img Node, selectors ...string) Node {
	sel := make([]any, len(selectors))
	for i, s := range selectors {
		sel[i] = s
	}
	return g.Invoke("Image.select", Args{
		"input":         img,
		"bandSelectors": g.Const(sel),
	})
}

// ImageSelectIndex subsets a single band by positional index.
func (g *Graph) ImageSelectIndex(img Node, index int) Node {
	return g.Invoke("Image.select", Args{
		"input":         img,
		"bandSelectors": g.Const([]any{index}),
	})
}

func (g *Graph) ImageRename(img Node, names ...string) Node {
	sel := make([]any, len(names))
	for i, n := range names {
		sel[i] = n
	}
	return g.Invoke("Image.rename", Args{"input": img, "names": g.Const(sel)})
}

func (g *Graph) ImageConstant(value any) Node {
	return g.Invoke("Image.constant", Args{"value": g.Const(value)})
}

func (g *Graph) imageBinary(name string, img1, img2 Node) Node {
	return g.Invoke(name, Args{"image1": img1, "image2": img2})
}

func (g *Graph) ImageAdd(img1, img2 Node) Node {
	return g.imageBinary("Image.add", img1, img2)
}

func (g *Graph) ImageMultiply(img1, img2 Node) Node {
	return g.imageBinary("Image.multiply", img1, img2)
}

// ImageGtConst masks where image pixels exceed a scalar.
func (g *Graph) ImageGtConst(img Node, value float64) Node {
	return g.imageBinary("Image.gt", img, g.ImageConstant(value))
}

func (g *Graph) ImageLtConst(img Node, value float64) Node {
	return g.imageBinary("Image.lt", img, g.ImageConstant(value))
}

func (g *Graph) ImageNeqConst(img Node, value float64) Node {
	return g.imageBinary("Image.neq", img, g.ImageConstant(value))
}

func (g *Graph) ImageNot(img Node) Node {
	return g.Invoke("Image.not", Args{"value": img})
}

func (g *Graph) ImageAddBands(dst, src Node) Node {
	return g.Invoke("Image.addBands", Args{"dstImg": dst, "srcImg": src})
}

func (g *Graph) ImageUpdateMask(img, mask Node) Node {
	return g.Invoke("Image.updateMask", Args{"image": img, "mask": mask})
}

// ImageMask returns the mask of the image as an image.
func (g *Graph) ImageMask(img Node) Node {
	return g.Invoke("Image.mask", Args{"image": img})
}

// ImageProjection returns the projection of the image's first band.
func (g *Graph) ImageProjection(img Node) Node {
	return g.Invoke("Image.projection", Args{"image": img})
}

// Reproject forces the image to the given projection at scale meters.
func (g *Graph) Reproject(img, projection Node, scale float64) Node {
	return g.Invoke("Image.reproject", Args{
		"image": img,
		"crs":   projection,
		"scale": g.Const(scale),
	})
}

func (g *Graph) FocalMin(img Node, radius float64) Node {
	return g.Invoke("Image.focalMin", Args{"image": img, "radius": g.Const(radius)})
}

func (g *Graph) FocalMax(img Node, radius float64) Node {
	return g.Invoke("Image.focalMax", Args{"image": img, "radius": g.Const(radius)})
}

// DirectionalDistanceTransform computes per-pixel distance along angle
// (degrees) up to maxDistance pixels. Used to project cloud shadows.
func (g *Graph) DirectionalDistanceTransform(img, angle Node, maxDistance int) Node {
	return g.Invoke("Image.directionalDistanceTransform", Args{
		"image":       img,
		"angle":       angle,
		"maxDistance": g.Const(maxDistance),
	})
}

// ElementGet reads a metadata property off an element (image).
func (g *Graph) ElementGet(element Node, property string) Node {
	return g.Invoke("Element.get", Args{
		"object":   element,
		"property": g.Const(property),
	})
}

// NumberSubtract computes left - right for number nodes.
func (g *Graph) NumberSubtract(left, right Node) Node {
	return g.Invoke("Number.subtract", Args{"left": left, "right": right})
}
