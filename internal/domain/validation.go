package domain

import (
	"fmt"
	"strings"
)

// FieldError represents a single field's validation error.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"message"`
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

// RecordError is a hard data-integrity failure on one transcript record.
// It carries the customer id and the raw record so the offending input
// line can be found by hand; there is no recovery path, the job is rerun
// after the input is fixed.
type RecordError struct {
	CustomerID string
	Record     RawRecord
	Fields     []FieldError
}

func (e *RecordError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, fe := range e.Fields {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("malformed record for customer %q (kind=%q time=%d offer=%q): %s",
		e.CustomerID, e.Record.Kind, e.Record.Timestamp, e.Record.Value.OfferID,
		strings.Join(msgs, "; "))
}

// ValidateRawRecord performs strict checks on one transcript record.
// Data-quality *filtering* (transactions, unknown customers) is policy and
// handled elsewhere; everything flagged here is malformed input.
func ValidateRawRecord(rec *RawRecord) []FieldError {
	var errs []FieldError

	if rec.CustomerID == "" {
		errs = append(errs, FieldError{"customer_id", "required"})
	}
	if rec.Timestamp < 0 {
		errs = append(errs, FieldError{"timestamp", "must be non-negative hours"})
	}

	if !KnownKind(rec.Kind) {
		errs = append(errs, FieldError{"event", fmt.Sprintf("unknown event kind %q", rec.Kind)})
		return errs
	}

	if rec.Kind.IsOfferKind() {
		if rec.Value.OfferID == "" {
			errs = append(errs, FieldError{"value.offer_id", "required for offer events"})
		}
	} else {
		if rec.Value.Amount == nil {
			errs = append(errs, FieldError{"value.amount", "required for transactions"})
		}
		if rec.Value.OfferID != "" {
			errs = append(errs, FieldError{"value.offer_id", "must be absent on transactions"})
		}
	}

	return errs
}
