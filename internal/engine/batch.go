package engine

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/LevittS/jsqsh/internal/call"
	"github.com/LevittS/jsqsh/internal/render"
)

// BatchOptions controls CSV-driven repeated execution.
type BatchOptions struct {
	// HasHeader skips the first record of the input.
	HasHeader bool

	// ContinueOnError keeps processing subsequent records after a record
	// fails to bind or execute, logging each failure. The default aborts
	// the batch on the first failure.
	ContinueOnError bool
}

// ExecuteBatch executes the same statement once per CSV record, re-binding
// parameters that carry column back-references from each record's values.
// When no descriptors are supplied, one inout string descriptor per input
// column is synthesized. Records are numbered from 1 for error reporting.
func (e *Engine) ExecuteBatch(ctx context.Context, sink render.Renderer, sql string, params []*call.Parameter, input io.Reader, opts BatchOptions) error {
	reader := csv.NewReader(input)
	reader.FieldsPerRecord = -1

	isCall := call.IsCall(sql)
	line := 0

	if opts.HasHeader {
		if _, err := reader.Read(); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read batch input: %w", err)
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read batch input: %w", err)
		}
		line++

		// Without caller-supplied descriptors every input column drives
		// one parameter at the same position.
		if len(params) == 0 {
			params = make([]*call.Parameter, len(record))
			for i := range record {
				p, err := call.ParseDescriptor(fmt.Sprintf("S:#%d", i+1), i+1)
				if err != nil {
					return err
				}
				params[i] = p
			}
		}

		if err := setRecordValues(line, record, params); err != nil {
			if opts.ContinueOnError {
				e.log.Warn("skipping batch record", "line", line, "error", err)
				continue
			}
			return err
		}

		if isCall {
			err = e.ExecuteCall(ctx, sink, sql, params)
		} else {
			err = e.ExecutePrepared(ctx, sink, sql, params)
		}
		if err != nil {
			if opts.ContinueOnError {
				e.log.Warn("batch record failed", "line", line, "error", err)
				continue
			}
			return fmt.Errorf("batch line #%d: %w", line, err)
		}
	}
}

// setRecordValues copies record values into every parameter carrying a
// column back-reference. A record missing a referenced column is fatal for
// that record and reported with its 1-based line number.
func setRecordValues(line int, record []string, params []*call.Parameter) error {
	for _, p := range params {
		if p.ColumnIdx < 0 {
			continue
		}
		if p.ColumnIdx >= len(record) {
			return fmt.Errorf("line #%d does not contain requested column #%d",
				line, p.ColumnIdx+1)
		}
		p.SetValue(record[p.ColumnIdx])
	}
	return nil
}
