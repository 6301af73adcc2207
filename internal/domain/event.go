package domain

// EventKind is the transcript event discriminator. The raw feed uses the
// spelled-out forms below; anything else is a data-integrity failure.
type EventKind string

const (
	KindReceived    EventKind = "offer received"
	KindViewed      EventKind = "offer viewed"
	KindCompleted   EventKind = "offer completed"
	KindTransaction EventKind = "transaction"
)

// KnownKind reports whether k is one of the four transcript event kinds.
func KnownKind(k EventKind) bool {
	switch k {
	case KindReceived, KindViewed, KindCompleted, KindTransaction:
		return true
	}
	return false
}

// IsOfferKind reports whether k refers to an offer and therefore must
// carry an offer id in its payload.
func (k EventKind) IsOfferKind() bool {
	return k == KindReceived || k == KindViewed || k == KindCompleted
}

// Payload is the tagged value attached to a raw transcript record: offer
// events carry an offer id, transactions carry a monetary amount. Exactly
// one variant is set on a well-formed record.
type Payload struct {
	OfferID string
	Amount  *float64
}

// RawRecord is one transcript line before normalization, column names
// already canonicalized by the loader (person -> customer_id, time ->
// timestamp hours).
type RawRecord struct {
	CustomerID string
	Timestamp  int64 // hours since test start
	Kind       EventKind
	Value      Payload
}

// Event is the normalized form consumed by the reconstructor: one row per
// offer-related transcript record, transaction amounts discarded.
type Event struct {
	CustomerID string
	Timestamp  int64
	Kind       EventKind
	OfferID    string
}
