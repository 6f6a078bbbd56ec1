package spatialetl

// Unification of raw task samples into the common training record schema.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Source is the provenance label stamped on every unified record.
const Source = "coco_simulated"

// The annotation type names used within unified records.
const (
	AnnotationBBox       = "bbox"
	AnnotationPoint      = "point"
	AnnotationTrajectory = "trajectory"
)

// ErrUnknownTaskType is returned when a sample's task type is outside the
// closed set of known tasks.
var ErrUnknownTaskType = errors.New("unknown task type")

// ImageDims are the decoded pixel dimensions of a sample's image. Both values
// are positive for any successfully decoded image.
type ImageDims struct {
	Width  int
	Height int
}

// NormalizedAnnotation is one spatial annotation with all coordinates on the
// [0,1] scale. Value mirrors the shape of the raw payload: a [4]float64 box,
// a [2]float64 point, or a [][2]float64 trajectory.
type NormalizedAnnotation struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
	Label string      `json:"label"`
}

// Media describes the image a record is tied to.
type Media struct {
	ImageSize [2]int `json:"image_size"` // [width, height]
	URL       string `json:"url"`
}

// Message is one turn of the instruction conversation.
type Message struct {
	From  string `json:"from"`
	Value string `json:"value"`
}

// UnifiedRecord is the common output schema merging the heterogeneous
// annotation types into one instruction-following training example.
type UnifiedRecord struct {
	ID                 string                 `json:"id"`
	Source             string                 `json:"source"`
	TaskType           TaskType               `json:"task_type"`
	Media              Media                  `json:"media"`
	SpatialAnnotations []NormalizedAnnotation `json:"spatial_annotations"`
	Conversations      []Message              `json:"conversations"`
}

// Unify converts a raw sample and its image dimensions into a unified record.
//
// The response embeds the normalized coordinates between type specific
// markers so that it can be parsed back out for evaluation.
func Unify(sample RawSample, dims ImageDims) (UnifiedRecord, error) {
	if dims.Width <= 0 || dims.Height <= 0 {
		return UnifiedRecord{}, fmt.Errorf("non-positive image dimensions %dx%d for %q",
			dims.Width, dims.Height, sample.ID)
	}

	var annotation NormalizedAnnotation
	var response string
	switch sample.TaskType {
	case TaskDetection:
		bbox, err := coords4(sample.Data.BBox)
		if err != nil {
			return UnifiedRecord{}, fmt.Errorf("invalid bbox in %q: %v", sample.ID, err)
		}
		norm := NormalizeBBox(bbox, dims.Width, dims.Height)
		annotation = NormalizedAnnotation{Type: AnnotationBBox, Value: norm, Label: sample.Label}
		response = fmt.Sprintf("Found at <box>%s</box>.", formatCoords(norm[:]))

	case TaskTrajectory:
		points, err := coordPairs(sample.Data.Points)
		if err != nil {
			return UnifiedRecord{}, fmt.Errorf("invalid points in %q: %v", sample.ID, err)
		}
		norm := NormalizeTrajectory(points, dims.Width, dims.Height)
		annotation = NormalizedAnnotation{Type: AnnotationTrajectory, Value: norm, Label: sample.Label}
		response = fmt.Sprintf("Trajectory path: <traj>%s</traj>.", formatCoordPairs(norm))

	case TaskAffordance:
		point, err := coords2(sample.Data.Point)
		if err != nil {
			return UnifiedRecord{}, fmt.Errorf("invalid point in %q: %v", sample.ID, err)
		}
		norm := NormalizePoint(point, dims.Width, dims.Height)
		annotation = NormalizedAnnotation{Type: AnnotationPoint, Value: norm, Label: sample.Label}
		response = fmt.Sprintf("Interact at point: <point>%s</point>.", formatCoords(norm[:]))

	default:
		return UnifiedRecord{}, fmt.Errorf("%w: %q in sample %q", ErrUnknownTaskType,
			sample.TaskType, sample.ID)
	}

	return UnifiedRecord{
		ID:       sample.ID,
		Source:   Source,
		TaskType: sample.TaskType,
		Media: Media{
			ImageSize: [2]int{dims.Width, dims.Height},
			URL:       sample.URL,
		},
		SpatialAnnotations: []NormalizedAnnotation{annotation},
		Conversations: []Message{
			{From: "human", Value: sample.Instruction},
			{From: "gpt", Value: response},
		},
	}, nil
}

// coords4 validates and converts a bbox payload.
func coords4(v []float64) ([4]float64, error) {
	if len(v) != 4 {
		return [4]float64{}, fmt.Errorf("expected 4 values, got %d", len(v))
	}
	return [4]float64{v[0], v[1], v[2], v[3]}, nil
}

// coords2 validates and converts a point payload.
func coords2(v []float64) ([2]float64, error) {
	if len(v) != 2 {
		return [2]float64{}, fmt.Errorf("expected 2 values, got %d", len(v))
	}
	return [2]float64{v[0], v[1]}, nil
}

// coordPairs validates and converts a trajectory payload.
func coordPairs(v [][]float64) ([][2]float64, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("expected at least 1 point, got 0")
	}
	points := make([][2]float64, len(v))
	for i, p := range v {
		point, err := coords2(p)
		if err != nil {
			return nil, fmt.Errorf("point %d: %v", i, err)
		}
		points[i] = point
	}
	return points, nil
}

// formatCoords renders values as "[a, b, ...]" with minimal float notation.
func formatCoords(values []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}

// formatCoordPairs renders pairs as "[[a, b], ...]".
func formatCoordPairs(pairs [][2]float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatCoords(p[:]))
	}
	b.WriteByte(']')
	return b.String()
}
