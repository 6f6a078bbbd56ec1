package spatialetl

import (
	"os"
	"path/filepath"
	"testing"
)

func detectionRecord(id, label string) UnifiedRecord {
	return UnifiedRecord{
		ID:       id,
		Source:   Source,
		TaskType: TaskDetection,
		Media:    Media{ImageSize: [2]int{640, 480}, URL: "http://test/" + id + ".jpg"},
		SpatialAnnotations: []NormalizedAnnotation{
			{Type: AnnotationBBox, Value: [4]float64{0.1, 0.2, 0.3, 0.4}, Label: label},
		},
		Conversations: []Message{{From: "human", Value: "?"}, {From: "gpt", Value: "!"}},
	}
}

func TestLabelMapAssignsStableIDs(t *testing.T) {
	m := newTFLabelMap()
	if id := m.id("cat"); id != 1 {
		t.Errorf("First label got ID %d, want 1", id)
	}
	if id := m.id("dog"); id != 2 {
		t.Errorf("Second label got ID %d, want 2", id)
	}
	if id := m.id("cat"); id != 1 {
		t.Errorf("Repeated label got ID %d, want 1", id)
	}
}

func TestLabelMapRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.json")

	m := newTFLabelMap()
	m.id("cat")
	m.id("dog")
	if err := m.save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := loadTFLabelMap(path)
	if err != nil {
		t.Fatalf("loadTFLabelMap failed: %v", err)
	}
	if loaded.IDs["cat"] != 1 || loaded.IDs["dog"] != 2 {
		t.Errorf("Unexpected IDs after reload: %v", loaded.IDs)
	}
	// New labels continue after the highest loaded ID.
	if id := loaded.id("bird"); id != 3 {
		t.Errorf("New label after reload got ID %d, want 3", id)
	}
}

func TestLoadLabelMapMissingFile(t *testing.T) {
	_, err := loadTFLabelMap(filepath.Join(t.TempDir(), "missing.json"))
	if !os.IsNotExist(err) {
		t.Errorf("Expected a does-not-exist error, got %v", err)
	}
}

func TestToTFFeatures(t *testing.T) {
	labels := newTFLabelMap()
	f, err := toTFFeatures(detectionRecord("r1", "cat"), labels)
	if err != nil {
		t.Fatalf("toTFFeatures failed: %v", err)
	}

	if f["image/width"] != 640 || f["image/height"] != 480 {
		t.Errorf("Unexpected dimensions: %v x %v", f["image/width"], f["image/height"])
	}
	if f["image/source_id"] != "r1" {
		t.Errorf("Unexpected source_id: %v", f["image/source_id"])
	}
	xmins := f["image/object/bbox/xmin"].([]float32)
	xmaxs := f["image/object/bbox/xmax"].([]float32)
	if len(xmins) != 1 || xmins[0] != 0.1 || xmaxs[0] != 0.3 {
		t.Errorf("Unexpected bbox features: xmin=%v xmax=%v", xmins, xmaxs)
	}
	if ids := f["image/object/class/label"].([]int64); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("Unexpected class IDs: %v", ids)
	}
}

func TestToTFFeaturesRejectsOtherTasks(t *testing.T) {
	record := detectionRecord("r1", "cat")
	record.TaskType = TaskAffordance
	if _, err := toTFFeatures(record, newTFLabelMap()); err == nil {
		t.Error("Expected an error for a non-detection record")
	}
}

func TestWriteTFRecordFiltersAndWrites(t *testing.T) {
	dir := t.TempDir()
	recordPath := filepath.Join(dir, "train.tfrecord")
	labelMapPath := filepath.Join(dir, "train.labels.json")

	records := []UnifiedRecord{
		detectionRecord("r1", "cat"),
		{
			ID:       "r2",
			TaskType: TaskAffordance,
			SpatialAnnotations: []NormalizedAnnotation{
				{Type: AnnotationPoint, Value: [2]float64{0.5, 0.5}, Label: "handle"},
			},
		},
		detectionRecord("r3", "dog"),
	}

	if err := WriteTFRecord(recordPath, labelMapPath, records, 1); err != nil {
		t.Fatalf("WriteTFRecord failed: %v", err)
	}

	info, err := os.Stat(recordPath)
	if err != nil {
		t.Fatalf("Missing TFRecord output: %v", err)
	}
	if info.Size() == 0 {
		t.Error("TFRecord output is empty")
	}

	// Only detection labels enter the label map.
	labels, err := loadTFLabelMap(labelMapPath)
	if err != nil {
		t.Fatalf("Missing label map: %v", err)
	}
	if len(labels.IDs) != 2 || labels.IDs["cat"] != 1 || labels.IDs["dog"] != 2 {
		t.Errorf("Unexpected label map: %v", labels.IDs)
	}
	if _, ok := labels.IDs["handle"]; ok {
		t.Error("Non-detection label leaked into the label map")
	}
}

func TestWriteTFRecordSharded(t *testing.T) {
	dir := t.TempDir()
	recordPath := filepath.Join(dir, "train.tfrecord")
	labelMapPath := filepath.Join(dir, "train.labels.json")

	records := []UnifiedRecord{
		detectionRecord("r1", "cat"),
		detectionRecord("r2", "cat"),
		detectionRecord("r3", "dog"),
		detectionRecord("r4", "dog"),
	}

	if err := WriteTFRecord(recordPath, labelMapPath, records, 2); err != nil {
		t.Fatalf("WriteTFRecord failed: %v", err)
	}

	for _, suffix := range []string{"-00000-of-00002", "-00001-of-00002"} {
		if _, err := os.Stat(recordPath + suffix); err != nil {
			t.Errorf("Missing shard %s: %v", suffix, err)
		}
	}
}
