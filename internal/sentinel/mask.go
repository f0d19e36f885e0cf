package sentinel

import "github.com/canopysat/eeharvest/internal/ee"

// The cloud and shadow mask is assembled entirely as server-side expression
// nodes; none of the raster math below executes locally.

// srBandScale converts reflectance thresholds to the scaled integer range of
// the surface reflectance bands.
const srBandScale = 1e4

// MaskParams tunes the s2cloudless-based cloud and shadow mask.
type MaskParams struct {
	// CloudFilter drops images whose CLOUDY_PIXEL_PERCENTAGE exceeds it.
	CloudFilter int
	// CloudProbThresh marks pixels with s2cloudless probability above it
	// as cloud.
	CloudProbThresh int
	// NIRDarkThresh marks non-water pixels with B8 reflectance below it as
	// potential shadow.
	NIRDarkThresh float64
	// CloudProjDist is how far clouds are projected to find shadows, in
	// 100m increments.
	CloudProjDist int
	// Buffer dilates the combined mask, in meters.
	Buffer int
}

func DefaultMaskParams() MaskParams {
	return MaskParams{
		CloudFilter:     15,
		CloudProbThresh: 40,
		NIRDarkThresh:   0.15,
		CloudProjDist:   2,
		Buffer:          0,
	}
}

// addCloudBands attaches the joined s2cloudless probability band and the
// thresholded cloud band.
func addCloudBands(g *ee.Graph, img ee.Node, p MaskParams) ee.Node {
	prob := g.ImageSelect(g.ElementGet(img, "s2cloudless"), "probability")
	isCloud := g.ImageRename(g.ImageGtConst(prob, float64(p.CloudProbThresh)), "clouds")
	return g.ImageAddBands(g.ImageAddBands(img, prob), isCloud)
}

// addShadowBands projects shadows away from the sun and intersects them with
// dark non-water NIR pixels.
func addShadowBands(g *ee.Graph, img ee.Node, p MaskParams) ee.Node {
	// SCL class 6 is water.
	notWater := g.ImageNeqConst(g.ImageSelect(img, "SCL"), 6)
	darkPixels := g.ImageRename(
		g.ImageMultiply(g.ImageLtConst(g.ImageSelect(img, "B8"), p.NIRDarkThresh*srBandScale), notWater),
		"dark_pixels")

	// Shadow direction assumes a UTM projection.
	azimuth := g.NumberSubtract(g.Const(90.0), g.ElementGet(img, "MEAN_SOLAR_AZIMUTH_ANGLE"))

	projection := g.ImageProjection(g.ImageSelectIndex(img, 0))
	cloudProj := g.DirectionalDistanceTransform(g.ImageSelect(img, "clouds"), azimuth, p.CloudProjDist*10)
	cloudProj = g.Reproject(cloudProj, projection, 100)
	cloudProj = g.ImageRename(g.ImageMask(g.ImageSelect(cloudProj, "distance")), "cloud_transform")

	shadows := g.ImageRename(g.ImageMultiply(cloudProj, darkPixels), "shadows")

	withDark := g.ImageAddBands(img, darkPixels)
	withProj := g.ImageAddBands(withDark, cloudProj)
	return g.ImageAddBands(withProj, shadows)
}

// addCombinedMask merges clouds and shadows into the cloudmask band, eroding
// small patches and dilating by the buffer.
func addCombinedMask(g *ee.Graph, img ee.Node, p MaskParams) ee.Node {
	sum := g.ImageAdd(g.ImageSelect(img, "clouds"), g.ImageSelect(img, "shadows"))
	mask := g.ImageGtConst(sum, 0)
	mask = g.FocalMax(g.FocalMin(mask, 2), float64(p.Buffer)*2/20)
	mask = g.Reproject(mask, g.ImageProjection(g.ImageSelectIndex(img, 0)), 20)
	mask = g.ImageRename(mask, "cloudmask")
	return g.ImageAddBands(img, mask)
}

// applyMask keeps the reflectance bands where the combined mask is clear.
func applyMask(g *ee.Graph, img ee.Node) ee.Node {
	clear := g.ImageNot(g.ImageSelect(img, "cloudmask"))
	return g.ImageUpdateMask(g.ImageSelect(img, "B.*"), clear)
}

// maskImage chains the full per-image mask construction.
func maskImage(g *ee.Graph, img ee.Node, p MaskParams) ee.Node {
	img = addCloudBands(g, img, p)
	img = addShadowBands(g, img, p)
	img = addCombinedMask(g, img, p)
	return applyMask(g, img)
}
