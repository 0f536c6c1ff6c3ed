package csvcodec

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/umtracker/platform/pkg/common/models"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Result is one decoded row. Exactly one of Circuit or Err is meaningful.
type Result struct {
	Line    int
	Circuit models.Circuit
	Err     error
}

// Decode returns a lazy sequence over the rows of payload, header excluded.
// Malformed rows are yielded as errors and decoding moves on to the next row.
// Each range over the sequence starts again from the first row.
func Decode(payload []byte) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		r := newReader(payload)

		header, err := r.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(Result{Line: 1, Err: fmt.Errorf("read header: %w", err)})
			return
		}
		index := headerIndex(header)

		for {
			record, err := r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var parseErr *csv.ParseError
				if !errors.As(err, &parseErr) {
					yield(Result{Err: err})
					return
				}
				if !yield(Result{Line: parseErr.StartLine, Err: err}) {
					return
				}
				continue
			}

			line, _ := r.FieldPos(0)
			if !yield(Result{Line: line, Circuit: toCircuit(record, index)}) {
				return
			}
		}
	}
}

func newReader(payload []byte) *csv.Reader {
	br := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := br.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = br.Discard(len(byteOrderMark))
	}

	r := csv.NewReader(br)
	// The header fixes the arity; rows that differ surface csv.ErrFieldCount.
	r.FieldsPerRecord = 0
	r.ReuseRecord = false
	return r
}

// headerIndex maps each known column to its position in the header.
// Unknown header names are ignored.
func headerIndex(header []string) []int {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	index := make([]int, len(columns))
	for i, col := range columns {
		pos, ok := positions[col.name]
		if !ok {
			pos = -1
		}
		index[i] = pos
	}
	return index
}

func toCircuit(record []string, index []int) models.Circuit {
	var c models.Circuit
	for i, col := range columns {
		if pos := index[i]; pos >= 0 && pos < len(record) {
			*col.field(&c) = record[pos]
		}
	}
	return c
}
