package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jobtrack/jobtrack-be/internal/domain"
)

// WriteJSON streams the collection as an indented JSON array in store order.
func WriteJSON(w io.Writer, records []domain.JobRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}
