package domain

import "time"

// AgeUnknown is the sentinel the demographic feed uses for customers who
// declined to give an age. It is carried through as-is, never filtered.
const AgeUnknown = 118

// OfferMeta is the static portfolio row for one offer id.
type OfferMeta struct {
	OfferID       string
	OfferType     string
	Difficulty    int
	Reward        int
	DurationDays  int
	DurationHours int64 // DurationDays * 24, derived at load
	Channels      []string
}

// Customer is one demographic row. Rows with null gender or income never
// make it past the loader.
type Customer struct {
	CustomerID     string
	Gender         string // F, M or O
	Age            int
	Income         float64
	BecameMemberOn int // YYYYMMDD
}

// MemberDate converts the YYYYMMDD membership-start integer to a UTC date.
func (c Customer) MemberDate() time.Time {
	y := c.BecameMemberOn / 10000
	m := (c.BecameMemberOn / 100) % 100
	d := c.BecameMemberOn % 100
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// OfferInstance is one specific send of an offer to a customer, rebuilt
// from the event stream. Repeat sends of the same offer id are separate
// instances distinguished by TimeReceived.
type OfferInstance struct {
	CustomerID    string
	OfferID       string
	InstanceIndex int // 0-based rank of TimeReceived among siblings
	TimeReceived  int64
	Completed     bool
	TimeCompleted *int64
	Viewed        bool
	TimeViewed    *int64
	// ViewedBefore is nil unless Completed; true when the offer was viewed
	// at or before completion, false when completed unseen or after.
	ViewedBefore  *bool
	DurationHours int64
	// SiblingCount is how many times this (customer, offer) pair was sent;
	// SiblingReceiveTimes lists all of those sends in chronological order.
	SiblingCount        int
	SiblingReceiveTimes []int64
}

// EnrichedRecord is the final flat output row: an OfferInstance joined
// with demographics and offer metadata plus the derived history columns.
// Offer metadata fields are pointers because the portfolio join is a left
// join; an unmatched offer id leaves them nil.
type EnrichedRecord struct {
	CustomerID    string
	OfferID       string
	InstanceIndex int
	Completed     bool
	Viewed        bool
	ViewedBefore  *bool
	TimeReceived  int64
	TimeViewed    *int64
	TimeCompleted *int64
	OfferDuration int64
	OfferCount    int
	TimePoints    string // sibling receive times, dot-joined

	SameOfferCompletedBefore int
	AnyOfferCompletedBefore  int

	Gender         string // expanded label: Female, Male, Other
	Age            int
	Income         float64
	BecameMemberOn int
	OfferDate      time.Time
	MemberDate     time.Time
	MemberMonths   int

	OfferType   *string
	Difficulty  *int
	OfferReward *int
	Channels    []string
}
