package spatialetl

// The sequential ETL driver.

import (
	"fmt"
	"log"
	"path/filepath"
)

// Pipeline runs samples through image acquisition, unification and
// visualization.
//
// Samples are processed one at a time, strictly in input order; output order
// therefore equals input order minus skips. Verification image names are
// derived from the task type, so later samples of the same type overwrite
// earlier ones. One verification image per task type survives a run.
type Pipeline struct {
	Source ImageSource
	Viz    Visualizer
	VizDir string // Output directory for verification images.
	VizExt string // File extension for verification images, without the dot.
}

// NewPipeline returns a Pipeline writing verification images as PNGs to
// vizDir.
func NewPipeline(source ImageSource, viz Visualizer, vizDir string) *Pipeline {
	return &Pipeline{Source: source, Viz: viz, VizDir: vizDir, VizExt: "png"}
}

// Run processes the samples and returns the unified records of those that
// succeeded.
//
// Any per-sample failure (fetch, decode, unification) is logged and converts
// into a skip; Run always completes. A failed verification render is logged
// but does not discard the already unified record.
func (p *Pipeline) Run(samples []RawSample) []UnifiedRecord {
	records := make([]UnifiedRecord, 0, len(samples))
	for _, sample := range samples {
		img, err := p.Source.Fetch(sample.URL)
		if err != nil {
			log.Printf("Fetch failed, skipping sample %q: %v", sample.ID, err)
			continue
		}

		bounds := img.Bounds()
		record, err := Unify(sample, ImageDims{Width: bounds.Dx(), Height: bounds.Dy()})
		if err != nil {
			log.Printf("Unification failed, skipping sample %q: %v", sample.ID, err)
			continue
		}
		records = append(records, record)

		if p.Viz != nil {
			outPath := filepath.Join(p.VizDir, fmt.Sprintf("verify_%s.%s", sample.TaskType, p.VizExt))
			if err := p.Viz.Render(img, sample, outPath); err != nil {
				log.Printf("Visualization failed for sample %q: %v", sample.ID, err)
			}
		}
	}

	return records
}
