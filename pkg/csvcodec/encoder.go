package csvcodec

import (
	"encoding/csv"
	"io"

	"github.com/umtracker/platform/pkg/common/models"
)

// Encode writes the header followed by one row per circuit.
func Encode(w io.Writer, circuits []models.Circuit) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}

	row := make([]string, len(columns))
	for i := range circuits {
		for j, col := range columns {
			row[j] = *col.field(&circuits[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
