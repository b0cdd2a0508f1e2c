// Package handlers holds the built-in procedures the service can answer with.
package handlers

import (
	"context"
	"time"

	"github.com/kamusis/answerhub/internal/dispatch"
)

// Clock returns the current time.
type Clock func() time.Time

// Register adds every built-in handler to reg. A nil clock means time.Now.
func Register(reg *dispatch.Registry, clock Clock) error {
	if clock == nil {
		clock = time.Now
	}
	for _, b := range builtins(clock) {
		if err := reg.Register(b.desc, b.fn); err != nil {
			return err
		}
	}
	return nil
}

type builtin struct {
	desc dispatch.Descriptor
	fn   dispatch.Func
}

func builtins(clock Clock) []builtin {
	return []builtin{
		{
			desc: dispatch.Descriptor{
				Key:         "csv_zip_to_json",
				Summary:     "Convert the uploaded CSV file, or a zip of CSV files, to a JSON array of row objects.",
				AcceptsFile: true,
				Params:      []dispatch.Param{{Name: "file_path", Required: true}},
			},
			fn: csvToJSON,
		},
		{
			desc: dispatch.Descriptor{
				Key:         "csv_column_sum",
				Summary:     "Sum a numeric column across the uploaded CSV files.",
				AcceptsFile: true,
				Params: []dispatch.Param{
					{Name: "file_path", Required: true},
					{Name: "column", Description: "Header of the column to sum", Required: true},
				},
			},
			fn: csvColumnSum,
		},
		{
			desc: dispatch.Descriptor{
				Key:     "count_weekdays",
				Summary: "Count how many times a weekday occurs in an inclusive date range.",
				Params: []dispatch.Param{
					{Name: "weekday", Description: "Weekday name, e.g. Wednesday", Required: true},
					{Name: "start_date", Description: "First day, YYYY-MM-DD", Required: true},
					{Name: "end_date", Description: "Last day, YYYY-MM-DD", Required: true},
				},
			},
			fn: countWeekdays,
		},
		{
			desc: dispatch.Descriptor{
				Key:     "sha256_text",
				Summary: "Compute the SHA-256 hex digest of a text.",
				Params:  []dispatch.Param{{Name: "text", Description: "Text to hash", Required: true}},
			},
			fn: sha256Text,
		},
		{
			desc: dispatch.Descriptor{
				Key:     "current_utc_date",
				Summary: "Report today's date in UTC.",
			},
			fn: func(_ context.Context, _ *dispatch.Call) (any, error) {
				return clock().UTC().Format(time.DateOnly), nil
			},
		},
	}
}
