// Package normalize implements the first pipeline stage: raw transcript
// records in, a uniform offer-event table out.
package normalize

import (
	"sort"

	"example.com/offerpipeline/internal/domain"
)

// Stats counts the rows the normalizer filtered out. Filtering is policy,
// not failure, but the counts belong in the run summary.
type Stats struct {
	RawRecords       int
	Transactions     int
	UnknownCustomers int
	Events           int
}

// Normalize validates every raw record, drops transactions and records for
// customers absent from the demographic table, and returns the surviving
// offer events sorted by (customer_id, timestamp).
//
// Any malformed record aborts the run with a *domain.RecordError; this is
// an offline batch job with no recovery path.
func Normalize(raw []domain.RawRecord, profiles map[string]domain.Customer) ([]domain.Event, Stats, error) {
	st := Stats{RawRecords: len(raw)}

	events := make([]domain.Event, 0, len(raw))
	for i := range raw {
		rec := &raw[i]
		if errs := domain.ValidateRawRecord(rec); len(errs) > 0 {
			return nil, st, &domain.RecordError{CustomerID: rec.CustomerID, Record: *rec, Fields: errs}
		}
		if rec.Kind == domain.KindTransaction {
			st.Transactions++
			continue
		}
		if _, ok := profiles[rec.CustomerID]; !ok {
			st.UnknownCustomers++
			continue
		}
		events = append(events, domain.Event{
			CustomerID: rec.CustomerID,
			Timestamp:  rec.Timestamp,
			Kind:       rec.Kind,
			OfferID:    rec.Value.OfferID,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].CustomerID != events[j].CustomerID {
			return events[i].CustomerID < events[j].CustomerID
		}
		return events[i].Timestamp < events[j].Timestamp
	})

	st.Events = len(events)
	return events, st, nil
}
