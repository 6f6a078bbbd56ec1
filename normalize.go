package spatialetl

// Coordinate normalization to the dimensionless [0,1] scale.

import "math"

// coordPrecision is the number of decimal digits kept after normalization.
// Values are rounded half away from zero.
const coordPrecision = 3

// roundCoord rounds v to coordPrecision decimal digits.
func roundCoord(v float64) float64 {
	shift := math.Pow(10, coordPrecision)
	return math.Round(v*shift) / shift
}

// NormalizeBBox converts an [x, y, width, height] pixel box with top-left
// origin into a two-corner normalized box [x1, y1, x2, y2].
//
// width and height must be positive; this is a precondition, not a
// recoverable error.
func NormalizeBBox(bbox [4]float64, width, height int) [4]float64 {
	w := float64(width)
	h := float64(height)
	return [4]float64{
		roundCoord(bbox[0] / w),
		roundCoord(bbox[1] / h),
		roundCoord((bbox[0] + bbox[2]) / w),
		roundCoord((bbox[1] + bbox[3]) / h),
	}
}

// NormalizePoint converts an [x, y] pixel coordinate into normalized form.
func NormalizePoint(point [2]float64, width, height int) [2]float64 {
	return [2]float64{
		roundCoord(point[0] / float64(width)),
		roundCoord(point[1] / float64(height)),
	}
}

// NormalizeTrajectory converts an ordered sequence of [x, y] pixel
// coordinates into normalized form, preserving length and order.
func NormalizeTrajectory(points [][2]float64, width, height int) [][2]float64 {
	normalized := make([][2]float64, len(points))
	for i, p := range points {
		normalized[i] = NormalizePoint(p, width, height)
	}
	return normalized
}
