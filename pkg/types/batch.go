// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// BatchResult holds the outcome of a batch run over many posts or files.
type BatchResult struct {
	Converted int `json:"converted" yaml:"converted"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Total returns the total number of items processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any item failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Summary is the one-line report printed at the end of a batch.
func (r BatchResult) Summary() string {
	return fmt.Sprintf("Batch summary: %d converted, %d skipped, %d failed (total: %d)",
		r.Converted, r.Skipped, r.Failed, r.Total())
}
