package spatialetl

// TFRecord object detection export.

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	tensorflow "github.com/ryszard/tfutils/proto/tensorflow/core/example"
)

// tfLabelMap assigns stable integer IDs to class labels, starting at 1 in
// first-seen order.
type tfLabelMap struct {
	IDs    map[string]int32
	nextID int32
}

func newTFLabelMap() *tfLabelMap {
	return &tfLabelMap{IDs: make(map[string]int32), nextID: 1}
}

// id returns the ID for label, assigning the next free one if no mapping
// exists yet.
func (m *tfLabelMap) id(label string) int32 {
	if id, ok := m.IDs[label]; ok {
		return id
	}
	m.IDs[label] = m.nextID
	m.nextID++
	return m.IDs[label]
}

// loadTFLabelMap loads a label map from the JSON file at path.
//
// If an error occurs because the file does not exist, then os.IsNotExist will
// return true for the error.
func loadTFLabelMap(path string) (*tfLabelMap, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	m := newTFLabelMap()
	if err := json.Unmarshal(enc, &m.IDs); err != nil {
		return nil, fmt.Errorf("failed to parse label map from %q: %v", path, err)
	}
	for k, v := range m.IDs {
		if k == "" || v <= 0 {
			return nil, fmt.Errorf("invalid label map entry: %q: %d", k, v)
		}
		if v >= m.nextID {
			m.nextID = v + 1
		}
	}

	return m, nil
}

// save writes the label map as JSON to path.
func (m *tfLabelMap) save(path string) error {
	enc, err := json.MarshalIndent(m.IDs, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, enc, 0644); err != nil {
		return fmt.Errorf("cannot write label map %q: %v", path, err)
	}
	return nil
}

// toTFFeatures converts a detection record into a tensorflow.Example feature
// map. The normalized box values go in directly as they are already on the
// [0,1] scale expected by the object detection feature schema.
func toTFFeatures(r UnifiedRecord, labels *tfLabelMap) (map[string]interface{}, error) {
	if r.TaskType != TaskDetection {
		return nil, fmt.Errorf("record %q has task type %q, expected %q",
			r.ID, r.TaskType, TaskDetection)
	}

	f := make(map[string]interface{}, 12)
	f["image/width"] = r.Media.ImageSize[0]
	f["image/height"] = r.Media.ImageSize[1]
	f["image/source_id"] = r.ID
	f["image/filename"] = r.Media.URL

	xmins := make([]float32, 0, len(r.SpatialAnnotations))
	ymins := make([]float32, 0, len(r.SpatialAnnotations))
	xmaxs := make([]float32, 0, len(r.SpatialAnnotations))
	ymaxs := make([]float32, 0, len(r.SpatialAnnotations))
	classes := make([]string, 0, len(r.SpatialAnnotations))
	classIDs := make([]int64, 0, len(r.SpatialAnnotations))
	for _, a := range r.SpatialAnnotations {
		box, ok := a.Value.([4]float64)
		if !ok || a.Type != AnnotationBBox {
			continue
		}
		xmins = append(xmins, float32(box[0]))
		ymins = append(ymins, float32(box[1]))
		xmaxs = append(xmaxs, float32(box[2]))
		ymaxs = append(ymaxs, float32(box[3]))
		classes = append(classes, a.Label)
		classIDs = append(classIDs, int64(labels.id(a.Label)))
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("record %q has no bbox annotation", r.ID)
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs

	return f, nil
}

// WriteTFRecord does a streaming conversion, serialisation and file write of
// the detection records to one or more TFRecord files stored under
// recordFilePath (with suffixes added when numShards > 1).
//
// Records of other task types are skipped with a logged diagnostic. The label
// map is loaded from labelMapPath when it exists, so that IDs stay stable
// across runs, and written back after the export.
func WriteTFRecord(recordFilePath, labelMapPath string, records []UnifiedRecord,
		numShards int) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if numShards <= 0 {
		numShards = 1
	}

	labels, err := loadTFLabelMap(labelMapPath)
	if os.IsNotExist(err) {
		labels = newTFLabelMap()
	} else if err != nil {
		return fmt.Errorf("failed to read the label map from %q: %v", labelMapPath, err)
	}

	// Only detection records carry the bbox features of the export schema.
	detections := make([]UnifiedRecord, 0, len(records))
	for _, r := range records {
		if r.TaskType != TaskDetection {
			log.Printf("Skipping record %q for TFRecord export: task type %q", r.ID, r.TaskType)
			continue
		}
		detections = append(detections, r)
	}

	fmtShardSuffix := func(idx int) string {
		return fmt.Sprintf("-%05d-of-%05d", idx, numShards)
	}

	var shardFile *os.File
	shardSize := int(math.Ceil(float64(len(detections)) / float64(numShards)))
	shardIdx := -1

	// Convert and serialise one record at a time.
	for i, r := range detections {
		// Check if a new shard file needs to be opened for writing.
		if i%shardSize == 0 {
			shardIdx++

			if shardFile != nil {
				_ = shardFile.Close()
				shardFile = nil
			}

			shardPath := recordFilePath
			if numShards > 1 {
				shardPath += fmtShardSuffix(shardIdx)
			}
			f, err := os.Create(shardPath)
			if err != nil {
				return fmt.Errorf("failed to create shard at %q: %v", shardPath, err)
			}
			shardFile = f
		}

		features, err := toTFFeatures(r, labels)
		if err != nil {
			log.Printf("Failed to convert %q: %v", r.ID, err)
			continue
		}
		tfExample := example.New(features)

		if err := writeTFRecordExample(shardFile, tfExample); err != nil {
			log.Print("Failed to write example: ", err)
			break
		}
	}

	if shardFile != nil {
		_ = shardFile.Close()
	}

	return labels.save(labelMapPath)
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to
// w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}
