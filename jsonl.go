package spatialetl

// Line-delimited JSON output.

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSONL writes the records to outFile, one JSON object per line, in the
// order given. An existing file is overwritten.
func WriteJSONL(outFile string, records []UnifiedRecord) (err error) {
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("cannot create file %q: %v", outFile, err)
	}
	defer closeWithErrCheck(f, &err)

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("failed to encode record %q: %v", records[i].ID, err)
		}
	}

	return w.Flush()
}
