package history

import (
	"encoding/json"
	"fmt"
	"io"
)

// ExportJSONL writes runs as JSON lines, one run per line with its
// violation snapshot inline. The format is append-friendly and feeds
// straight into log pipelines.
func ExportJSONL(w io.Writer, runs []*Run) error {
	enc := json.NewEncoder(w)
	for _, run := range runs {
		if err := enc.Encode(run); err != nil {
			return fmt.Errorf("failed to encode run %s: %w", run.ID, err)
		}
	}
	return nil
}
