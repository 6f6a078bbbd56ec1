package spatialetl

// Verification overlay rendering.

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// The overlay colors, per draw mode.
var (
	boxColor    = color.NRGBA{0, 255, 0, 255}     // detection rectangle
	pathColor   = color.NRGBA{255, 0, 0, 255}     // trajectory polyline and markers
	discColor   = color.NRGBA{0, 0, 255, 153}     // translucent affordance disc
	centerColor = color.NRGBA{255, 255, 255, 255} // affordance center cross
)

// discRadius is the radius in pixels of the affordance disc.
const discRadius = 20

// Visualizer draws the verification overlay for a sample and writes it to
// outPath, overwriting any existing file.
type Visualizer interface {
	Render(img image.Image, sample RawSample, outPath string) error
}

// OverlayVisualizer renders the raw pixel-space geometry of a sample onto a
// copy of its image.
type OverlayVisualizer struct {
	Quality int // JPEG/WebP encoding quality.
}

// NewOverlayVisualizer returns an OverlayVisualizer with default encoding
// quality.
func NewOverlayVisualizer() *OverlayVisualizer {
	return &OverlayVisualizer{Quality: 92}
}

// Render draws the overlay matching the sample's task type: a rectangle
// outline for detection, a polyline with per-point markers for trajectory,
// and a translucent disc with a center cross for affordance.
func (v *OverlayVisualizer) Render(img image.Image, sample RawSample, outPath string) error {
	overlay := imaging.Clone(img)
	w := overlay.Bounds().Dx()
	h := overlay.Bounds().Dy()
	stroke := int(math.Max(2, 0.004*float64(min(w, h)))) // ~0.4% of min side
	cross := int(math.Max(5, 0.01*float64(min(w, h))))   // ~1% of min side

	switch sample.TaskType {
	case TaskDetection:
		b, err := coords4(sample.Data.BBox)
		if err != nil {
			return fmt.Errorf("invalid bbox in %q: %v", sample.ID, err)
		}
		drawRect(overlay, b[0], b[1], b[0]+b[2], b[1]+b[3], boxColor, stroke)

	case TaskTrajectory:
		points, err := coordPairs(sample.Data.Points)
		if err != nil {
			return fmt.Errorf("invalid points in %q: %v", sample.ID, err)
		}
		for i := 1; i < len(points); i++ {
			drawLine(overlay, points[i-1][0], points[i-1][1], points[i][0], points[i][1],
				pathColor, stroke)
		}
		for _, p := range points {
			fillSquare(overlay, int(math.Round(p[0])), int(math.Round(p[1])), 2*stroke, pathColor)
		}

	case TaskAffordance:
		p, err := coords2(sample.Data.Point)
		if err != nil {
			return fmt.Errorf("invalid point in %q: %v", sample.ID, err)
		}
		cx := int(math.Round(p[0]))
		cy := int(math.Round(p[1]))
		fillDisc(overlay, cx, cy, discRadius, discColor)
		drawHLine(overlay, cy, cx-cross, cx+cross, centerColor)
		drawVLine(overlay, cx, cy-cross, cy+cross, centerColor)

	default:
		return fmt.Errorf("%w: %q in sample %q", ErrUnknownTaskType, sample.TaskType, sample.ID)
	}

	return saveImage(outPath, overlay, v.Quality)
}

// blendPixel paints c onto (x, y) with source-over alpha blending. Pixels
// outside the image are ignored.
func blendPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= img.Bounds().Dx() || y >= img.Bounds().Dy() {
		return
	}
	i := y*img.Stride + x*4
	if c.A == 255 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = 255
		return
	}
	a := uint32(c.A)
	img.Pix[i+0] = uint8((uint32(c.R)*a + uint32(img.Pix[i+0])*(255-a)) / 255)
	img.Pix[i+1] = uint8((uint32(c.G)*a + uint32(img.Pix[i+1])*(255-a)) / 255)
	img.Pix[i+2] = uint8((uint32(c.B)*a + uint32(img.Pix[i+2])*(255-a)) / 255)
	img.Pix[i+3] = 255
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x < x1; x++ {
		blendPixel(img, x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y < y1; y++ {
		blendPixel(img, x, y, c)
	}
}

// drawRect draws a rectangle outline with the given corner coordinates.
func drawRect(img *image.NRGBA, fx0, fy0, fx1, fy1 float64, c color.NRGBA, stroke int) {
	x0 := int(math.Round(fx0))
	y0 := int(math.Round(fy0))
	x1 := int(math.Round(fx1))
	y1 := int(math.Round(fy1))
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

// drawLine draws a stroked line segment by stamping squares along it.
func drawLine(img *image.NRGBA, fx0, fy0, fx1, fy1 float64, c color.NRGBA, stroke int) {
	steps := int(math.Max(math.Abs(fx1-fx0), math.Abs(fy1-fy0))) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(fx0 + (fx1-fx0)*t))
		y := int(math.Round(fy0 + (fy1-fy0)*t))
		fillSquare(img, x, y, stroke, c)
	}
}

// fillSquare fills a square of the given radius centered on (cx, cy).
func fillSquare(img *image.NRGBA, cx, cy, radius int, c color.NRGBA) {
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			blendPixel(img, x, y, c)
		}
	}
}

// fillDisc fills a disc of the given radius centered on (cx, cy).
func fillDisc(img *image.NRGBA, cx, cy, radius int, c color.NRGBA) {
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx := x - cx
			dy := y - cy
			if dx*dx+dy*dy <= radius*radius {
				blendPixel(img, x, y, c)
			}
		}
	}
}
