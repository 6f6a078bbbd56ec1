package spatialetl

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

// grayImage returns a uniform mid-gray NRGBA image.
func grayImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	gray := color.NRGBA{128, 128, 128, 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, gray)
		}
	}
	return img
}

func TestDrawRect(t *testing.T) {
	img := grayImage(100, 100)
	drawRect(img, 10, 20, 60, 50, boxColor, 2)

	// Corners and edges take the outline color, the interior stays untouched.
	for _, p := range [][2]int{{10, 20}, {59, 20}, {10, 49}, {30, 21}} {
		if got := img.NRGBAAt(p[0], p[1]); got != boxColor {
			t.Errorf("Pixel (%d, %d) = %v, want outline color", p[0], p[1], got)
		}
	}
	if got := img.NRGBAAt(35, 35); got == boxColor {
		t.Error("Interior pixel took the outline color")
	}
}

func TestFillDiscBlendsTranslucentColor(t *testing.T) {
	img := grayImage(100, 100)
	fillDisc(img, 50, 50, 10, discColor)

	center := img.NRGBAAt(50, 50)
	if center.B <= center.R {
		t.Errorf("Disc center %v is not blue-tinted", center)
	}
	// Translucent paint blends instead of replacing.
	if center.B == 255 || center.R == 0 {
		t.Errorf("Disc center %v looks opaque, expected a blend", center)
	}
	// Pixels outside the radius stay untouched.
	if got := img.NRGBAAt(70, 50); got != (color.NRGBA{128, 128, 128, 255}) {
		t.Errorf("Pixel outside the disc changed: %v", got)
	}
}

func TestDrawLineCoversEndpoints(t *testing.T) {
	img := grayImage(100, 100)
	drawLine(img, 10, 10, 80, 60, pathColor, 2)

	for _, p := range [][2]int{{10, 10}, {80, 60}, {45, 35}} {
		if got := img.NRGBAAt(p[0], p[1]); got != pathColor {
			t.Errorf("Pixel (%d, %d) = %v, want line color", p[0], p[1], got)
		}
	}
}

func TestBlendPixelIgnoresOutOfBounds(t *testing.T) {
	img := grayImage(10, 10)
	blendPixel(img, -1, 5, boxColor)
	blendPixel(img, 5, 12, boxColor)
	// Reaching this point without a panic is the assertion.
}

func TestRenderDetection(t *testing.T) {
	viz := NewOverlayVisualizer()
	outPath := filepath.Join(t.TempDir(), "verify_detection.png")
	sample := RawSample{
		ID:       "box",
		TaskType: TaskDetection,
		Label:    "cat",
		Data:     TaskPayload{BBox: []float64{50, 60, 100, 80}},
	}

	if err := viz.Render(grayImage(480, 480), sample, outPath); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	img, format, err := loadImage(outPath)
	if err != nil {
		t.Fatalf("Failed to load the verification image: %v", err)
	}
	if format != "png" {
		t.Errorf("Expected png output, got %q", format)
	}
	if img.Bounds().Dx() != 480 || img.Bounds().Dy() != 480 {
		t.Errorf("Unexpected output dimensions: %v", img.Bounds())
	}
}

func TestRenderTrajectoryAndAffordance(t *testing.T) {
	viz := NewOverlayVisualizer()
	dir := t.TempDir()

	samples := []RawSample{
		{
			ID:       "traj",
			TaskType: TaskTrajectory,
			Data:     TaskPayload{Points: [][]float64{{50, 20}, {60, 100}, {80, 200}}},
		},
		{
			ID:       "point",
			TaskType: TaskAffordance,
			Data:     TaskPayload{Point: []float64{120, 100}},
		},
	}
	for _, sample := range samples {
		outPath := filepath.Join(dir, "verify_"+string(sample.TaskType)+".png")
		if err := viz.Render(grayImage(240, 240), sample, outPath); err != nil {
			t.Fatalf("Render failed for %q: %v", sample.ID, err)
		}
		if _, _, err := loadImage(outPath); err != nil {
			t.Errorf("Verification image for %q does not decode: %v", sample.ID, err)
		}
	}
}

func TestRenderRejectsInvalidSamples(t *testing.T) {
	viz := NewOverlayVisualizer()
	outPath := filepath.Join(t.TempDir(), "verify.png")

	bad := []RawSample{
		{ID: "a", TaskType: "segmentation"},
		{ID: "b", TaskType: TaskDetection, Data: TaskPayload{BBox: []float64{1, 2}}},
	}
	for _, sample := range bad {
		if err := viz.Render(grayImage(50, 50), sample, outPath); err == nil {
			t.Errorf("Expected Render to fail for sample %q", sample.ID)
		}
	}
}
