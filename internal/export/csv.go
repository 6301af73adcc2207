// Package export serializes enriched records as a delimited table for the
// downstream modeling job.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"example.com/offerpipeline/internal/domain"
)

const dateLayout = "2006-01-02"

// Header is the output column order. Downstream consumers read columns by
// name but the order is kept stable anyway.
var Header = []string{
	"user_id", "offer_id", "completed", "viewed", "viewed_before",
	"time_received", "time_viewed", "time_completed", "offer_duration",
	"offer_count", "time_points", "same_offer_completed_before",
	"any_offer_completed_before", "gender", "age", "income",
	"became_member_on", "offer_date", "member_date", "member_months",
	"offer_type", "difficulty", "offer_reward", "channels",
}

func boolCell(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func optBoolCell(b *bool) string {
	if b == nil {
		return ""
	}
	return boolCell(*b)
}

func optInt64Cell(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optIntCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optStringCell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// Row renders one record in Header order. Null cells serialize as empty
// strings and booleans as 0/1 integer flags.
func Row(rec *domain.EnrichedRecord) []string {
	return []string{
		rec.CustomerID,
		rec.OfferID,
		boolCell(rec.Completed),
		boolCell(rec.Viewed),
		optBoolCell(rec.ViewedBefore),
		strconv.FormatInt(rec.TimeReceived, 10),
		optInt64Cell(rec.TimeViewed),
		optInt64Cell(rec.TimeCompleted),
		strconv.FormatInt(rec.OfferDuration, 10),
		strconv.Itoa(rec.OfferCount),
		rec.TimePoints,
		strconv.Itoa(rec.SameOfferCompletedBefore),
		strconv.Itoa(rec.AnyOfferCompletedBefore),
		rec.Gender,
		strconv.Itoa(rec.Age),
		strconv.FormatFloat(rec.Income, 'f', -1, 64),
		strconv.Itoa(rec.BecameMemberOn),
		rec.OfferDate.Format(dateLayout),
		rec.MemberDate.Format(dateLayout),
		strconv.Itoa(rec.MemberMonths),
		optStringCell(rec.OfferType),
		optIntCell(rec.Difficulty),
		optIntCell(rec.OfferReward),
		strings.Join(rec.Channels, ","),
	}
}

// WriteCSV writes the header plus one row per record.
func WriteCSV(w io.Writer, recs []domain.EnrichedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for i := range recs {
		if err := cw.Write(Row(&recs[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
