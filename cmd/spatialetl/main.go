// Converts heterogeneous spatial-annotation samples (bounding boxes,
// trajectories, interaction points) tied to images into unified
// instruction-following training records, writing one JSON record per line
// and one verification image per task type.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	spatialetl "github.com/NIKKI-OH/Spatial-Understanding-ETL"
)

var (
	samplesPath string // The input sample list; empty selects the embedded corpus.
	outPath     string // The JSONL output file.

	vizDir     string // The output directory for verification images.
	vizExt     string // The verification image encoding {png, jpg, webp}.
	vizQuality int    // The JPEG/WebP quality for verification images.

	fetchTimeout time.Duration // The per-fetch timeout bound.

	tfRecordPath      string // The optional TFRecord output file.
	tfRecordLabelMap  string // The TFRecord label map file.
	tfRecordNumShards int    // The number of TFRecord shard files to create.
)

// envOr returns the value of the environment variable key, or fallback when
// it is unset or empty.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	// An optional .env file supplies default overrides; everything also works
	// with no configuration at all.
	if err := godotenv.Load(); err == nil {
		log.Print("Loaded configuration overrides from .env")
	}

	defaultTimeout := spatialetl.DefaultFetchTimeout
	if v := os.Getenv("SPATIALETL_FETCH_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			defaultTimeout = time.Duration(secs) * time.Second
		}
	}

	printUsageAndExit := func(msg ...interface{}) {
		log.Print(msg...)
		flag.Usage()
		os.Exit(1)
	}

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(os.Stderr,
			"  Runs the full pipeline over the embedded samples when invoked without arguments.")
		_, _ = fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}

	flag.StringVar(&samplesPath, "samples", "",
		"The `path` to a JSON sample list (empty uses the embedded samples)")
	flag.StringVar(&outPath, "out", envOr("SPATIALETL_OUT", "unified_multimodal_data.jsonl"),
		"The `path` to the JSONL output file")
	flag.StringVar(&vizDir, "viz-dir", envOr("SPATIALETL_VIZ_DIR", "."),
		"The output `directory` for verification images")
	flag.StringVar(&vizExt, "viz-ext", "png",
		"The `encoding` for verification images {png, jpg, webp}")
	flag.IntVar(&vizQuality, "viz-quality", 92,
		"The quality to use when encoding JPEG/WebP verification images [1, 100]")
	flag.DurationVar(&fetchTimeout, "fetch-timeout", defaultTimeout,
		"The `timeout` for a single image download")
	flag.StringVar(&tfRecordPath, "tfrecord", "",
		"The `path` to an optional TFRecord export of the detection records")
	flag.StringVar(&tfRecordLabelMap, "tfrecord-label-map", "",
		"The TFRecord label map `path` (defaults to <tfrecord>.labels.json)")
	flag.IntVar(&tfRecordNumShards, "num-shards", 1,
		"The number of shard files to create (tfrecord only)")

	flag.Parse()

	switch vizExt {
	case "png", "jpg", "webp":
	default:
		printUsageAndExit("Unsupported verification image encoding: ", vizExt)
	}
	if vizQuality < 1 || vizQuality > 100 {
		vizQuality = 92
		log.Print("Invalid quality, setting it to ", vizQuality)
	}
	if fetchTimeout <= 0 {
		printUsageAndExit("Invalid value for -fetch-timeout")
	}
	if tfRecordNumShards < 1 {
		printUsageAndExit("Invalid value for -num-shards")
	}
	if tfRecordPath != "" && tfRecordLabelMap == "" {
		tfRecordLabelMap = tfRecordPath + ".labels.json"
	}

	vizDir = filepath.Clean(vizDir)
	outPath = filepath.Clean(outPath)
}

func main() {
	// Load the sample list.
	samples := spatialetl.DefaultSamples()
	if samplesPath != "" {
		var err error
		samples, err = spatialetl.FromSamplesJSON(samplesPath)
		if err != nil {
			log.Fatal("Failed to load samples: ", err)
		}
	}
	log.Printf("Processing %d samples", len(samples))

	// Run the pipeline.
	viz := spatialetl.NewOverlayVisualizer()
	viz.Quality = vizQuality
	pipeline := spatialetl.NewPipeline(spatialetl.NewHTTPImageSource(fetchTimeout), viz, vizDir)
	pipeline.VizExt = vizExt
	records := pipeline.Run(samples)

	// Write the outputs.
	if err := spatialetl.WriteJSONL(outPath, records); err != nil {
		log.Fatal("Failed to write records: ", err)
	}
	log.Printf("Successfully wrote %d of %d records to %s", len(records), len(samples), outPath)

	if tfRecordPath != "" {
		if err := spatialetl.WriteTFRecord(tfRecordPath, tfRecordLabelMap, records,
				tfRecordNumShards); err != nil {
			log.Fatal("TFRecord export failed: ", err)
		}
		log.Print("Successfully wrote the TFRecord export to ", tfRecordPath)
	}
}
