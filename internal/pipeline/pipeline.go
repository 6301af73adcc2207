// Package pipeline wires the three batch stages together over fully
// materialized in-memory tables. Strictly single-threaded: each stage
// consumes the previous stage's output and produces a new table.
package pipeline

import (
	"log"
	"time"

	"example.com/offerpipeline/internal/domain"
	"example.com/offerpipeline/internal/enrich"
	"example.com/offerpipeline/internal/idempotency"
	"example.com/offerpipeline/internal/normalize"
	"example.com/offerpipeline/internal/reconstruct"
)

// Inputs are the three already-parsed record sets from the data loader.
type Inputs struct {
	Portfolio  []domain.OfferMeta
	Profiles   []domain.Customer
	Transcript []domain.RawRecord
}

type Stats struct {
	RawRecords              int
	TransactionsDropped     int
	UnknownCustomersDropped int
	Events                  int
	Instances               int
	Records                 int
}

type Result struct {
	Records []domain.EnrichedRecord
	Stats   Stats
	// Digest is a sha256 over the serialized output; identical input must
	// yield an identical digest on every run.
	Digest string
}

// Run executes normalize, reconstruct and enrich in order against the
// given reference epoch.
func Run(in Inputs, epoch time.Time) (*Result, error) {
	profiles := make(map[string]domain.Customer, len(in.Profiles))
	for _, c := range in.Profiles {
		profiles[c.CustomerID] = c
	}
	meta := make(map[string]domain.OfferMeta, len(in.Portfolio))
	for _, m := range in.Portfolio {
		meta[m.OfferID] = m
	}

	events, nst, err := normalize.Normalize(in.Transcript, profiles)
	if err != nil {
		return nil, err
	}
	log.Printf("[pipeline] normalized: raw=%d events=%d transactions_dropped=%d unknown_customers_dropped=%d",
		nst.RawRecords, nst.Events, nst.Transactions, nst.UnknownCustomers)

	instances, err := reconstruct.Reconstruct(events, meta)
	if err != nil {
		return nil, err
	}
	log.Printf("[pipeline] reconstructed: instances=%d", len(instances))

	records, err := enrich.Enrich(instances, profiles, meta, epoch)
	if err != nil {
		return nil, err
	}

	digest, err := idempotency.OutputDigest(records)
	if err != nil {
		return nil, err
	}
	log.Printf("[pipeline] enriched: records=%d digest=%s", len(records), digest[:12])

	return &Result{
		Records: records,
		Stats: Stats{
			RawRecords:              nst.RawRecords,
			TransactionsDropped:     nst.Transactions,
			UnknownCustomersDropped: nst.UnknownCustomers,
			Events:                  nst.Events,
			Instances:               len(instances),
			Records:                 len(records),
		},
		Digest: digest,
	}, nil
}
