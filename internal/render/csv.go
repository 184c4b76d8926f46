package render

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSV renders results as RFC 4180 comma-separated values. Footer text is
// not part of the data stream; it goes to the message writer instead.
type CSV struct {
	writer *csv.Writer
	msg    io.Writer

	// Headers controls whether a header record is emitted per result.
	Headers bool
}

// NewCSV creates a CSV renderer writing records to out and footer messages
// to msg (often stderr, so the data stream stays clean).
func NewCSV(out, msg io.Writer) *CSV {
	return &CSV{writer: csv.NewWriter(out), msg: msg, Headers: true}
}

func (c *CSV) Header(columns []ColumnDescription) {
	if !c.Headers {
		return
	}
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	_ = c.writer.Write(names)
}

func (c *CSV) Row(values []string) bool {
	return c.writer.Write(values) == nil
}

func (c *CSV) Flush() bool {
	c.writer.Flush()
	return c.writer.Error() == nil
}

func (c *CSV) Footer(text string) {
	if c.msg != nil {
		fmt.Fprintln(c.msg, text)
	}
}

func (c *CSV) IsDiscard() bool { return false }
