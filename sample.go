package spatialetl

// Raw sample input and loading.

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
)

// TaskType identifies the annotation task a sample belongs to.
type TaskType string

// The known task types.
const (
	TaskDetection  TaskType = "detection"
	TaskTrajectory TaskType = "trajectory"
	TaskAffordance TaskType = "affordance"
)

// TaskPayload holds the task specific coordinate data of a sample. Exactly
// one field is set, matching the sample's task type. All values are pixel
// units with a top-left origin.
type TaskPayload struct {
	BBox   []float64   `json:"bbox,omitempty"`   // [x, y, width, height]
	Points [][]float64 `json:"points,omitempty"` // Ordered [x, y] pairs; sequence order is temporal order.
	Point  []float64   `json:"point,omitempty"`  // [x, y]
}

// RawSample is a single heterogeneous annotation sample tied to an image URL.
type RawSample struct {
	ID          string      `json:"id"`
	URL         string      `json:"url"`
	TaskType    TaskType    `json:"task_type"`
	Label       string      `json:"label"`
	Data        TaskPayload `json:"data"`
	Instruction string      `json:"instruction"`
}

// DefaultSamples returns the embedded reference corpus, one sample per task
// type.
func DefaultSamples() []RawSample {
	return []RawSample{
		{
			ID:          "task_bbox_cat",
			URL:         "http://images.cocodataset.org/val2017/000000039769.jpg",
			TaskType:    TaskDetection,
			Label:       "cat",
			Data:        TaskPayload{BBox: []float64{14, 3, 310, 477}},
			Instruction: "Detect the cat.",
		},
		{
			ID:       "task_traj_skier",
			URL:      "http://images.cocodataset.org/val2017/000000000785.jpg",
			TaskType: TaskTrajectory,
			Label:    "skier_path",
			Data: TaskPayload{
				Points: [][]float64{{250, 20}, {260, 100}, {280, 200}, {300, 300}, {220, 350}},
			},
			Instruction: "Predict the future trajectory of the skier.",
		},
		{
			ID:          "task_affordance_sign",
			URL:         "http://images.cocodataset.org/val2017/000000000724.jpg",
			TaskType:    TaskAffordance,
			Label:       "stop_sign_center",
			Data:        TaskPayload{Point: []float64{343, 202}},
			Instruction: "Where is the center of the stop sign for interaction?",
		},
	}
}

// FromSamplesJSON reads and parses a sample list from the JSON file at path.
//
// Samples without an id are assigned a generated one. Samples missing a URL
// or task type are skipped with a logged diagnostic; input order is preserved
// for the samples that remain.
func FromSamplesJSON(path string) ([]RawSample, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var samples []RawSample
	if err := json.Unmarshal(enc, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse samples from %q: %v", path, err)
	}

	data := make([]RawSample, 0, len(samples))
	for _, s := range samples {
		if s.URL == "" || s.TaskType == "" {
			log.Printf("Skipping invalid sample %q: missing url or task_type", s.ID)
			continue
		}
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		data = append(data, s)
	}

	return data, nil
}
