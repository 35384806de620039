package domain

import "time"

// ErrorMarker prefixes GeneratedText when a generation attempt failed, so
// text-only consumers can still tell an error record from a real plan.
const ErrorMarker = "ERROR::"

// Outcome is the persisted result of one generation attempt. Rows are
// append-only: a retry inserts a new row and readers take the latest by
// CreatedAt, tie-broken by ID.
type Outcome struct {
	ID            int64
	RequestID     int64
	UserID        int64
	GeneratedText string
	EditedText    string
	ErrorKind     string
	ErrorMessage  string
	CreatedAt     time.Time
}

// Failed reports whether this outcome records a failed attempt.
func (o *Outcome) Failed() bool {
	return o.ErrorKind != ""
}

// ResultText resolves the text presented to callers. A non-empty human edit
// always wins over the generated text.
func (o *Outcome) ResultText() string {
	if o.EditedText != "" {
		return o.EditedText
	}
	return o.GeneratedText
}
