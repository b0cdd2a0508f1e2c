package answer

import (
	"github.com/kamusis/answerhub/internal/match"
)

// ExtractionStatus tags what happened when arguments were extracted.
type ExtractionStatus string

const (
	// ExtractionSkipped means no extraction was attempted: the handler takes
	// no parameters or the fallback answered.
	ExtractionSkipped ExtractionStatus = "skipped"
	// ExtractionNone means the extractor ran and found no arguments.
	ExtractionNone ExtractionStatus = "none"
	// ExtractionExtracted means the extractor returned arguments.
	ExtractionExtracted ExtractionStatus = "extracted"
	// ExtractionFailed means the extractor errored; the handler got no arguments.
	ExtractionFailed ExtractionStatus = "failed"
)

// DispatchStatus tags which handler produced the answer.
type DispatchStatus string

const (
	DispatchInvoked  DispatchStatus = "invoked"
	DispatchFallback DispatchStatus = "fallback"
)

// Outcome is the answer to one question together with how it was reached.
type Outcome struct {
	Answer any
	Match  match.Result

	// Handler is the key of the handler that ran.
	Handler    string
	Extraction ExtractionStatus
	// ExtractionErr holds the downgraded extractor error when Extraction is failed.
	ExtractionErr error
	Dispatch      DispatchStatus
}
