package core

import (
	"fmt"
	"io"
)

// Reporter writes the human-readable per-file outcome lines and the run summary.
type Reporter struct {
	w io.Writer
}

// NewReporter creates a Reporter writing to w. A nil w discards output.
func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = io.Discard
	}
	return &Reporter{w: w}
}

// File writes the outcome line for one file.
func (r *Reporter) File(res FileResult) {
	switch res.Phase {
	case PhaseCompleted:
		fmt.Fprintf(r.w, "Successfully imported %d Point of Interest records from %s\n", res.Records, res.Path)
	case PhaseSkipped:
		fmt.Fprintf(r.w, "Skipping '%s': File already imported.\n", res.Path)
	case PhaseFailed:
		fmt.Fprintf(r.w, "Error processing %s: %v (%s)\n", res.Path, res.Err, MapError(res.Err).Code)
	}
}

// Summary writes the totals and elapsed wall-clock time.
func (r *Reporter) Summary(s *Summary) {
	fmt.Fprintln(r.w, "+++++++++++++++++++++")
	fmt.Fprintf(r.w, "Files: %d processed, %d skipped, %d failed; %d records\n",
		s.Processed, s.Skipped, s.Failed, s.Records)
	fmt.Fprintf(r.w, "Import execution time: %.6f seconds\n", s.Elapsed.Seconds())
	fmt.Fprintln(r.w, "+++++++++++++++++++++")
}
