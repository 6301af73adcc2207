package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"example.com/offerpipeline/internal/domain"
	"example.com/offerpipeline/internal/idempotency"
)

type Writer struct {
	db    *DB
	runID string
}

func NewWriter(db *DB, runID string) *Writer { return &Writer{db: db, runID: runID} }

const dateLayout = "2006-01-02"

// InsertBatch inserts enriched records keyed by their stable instance key
// with ON CONFLICT DO NOTHING, so re-running the pipeline over the same
// input leaves the table unchanged.
func (w *Writer) InsertBatch(ctx context.Context, items []domain.EnrichedRecord) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	cols := []string{
		"instance_key", "run_id", "customer_id", "offer_id",
		"completed", "viewed", "viewed_before",
		"time_received", "time_viewed", "time_completed",
		"offer_duration", "offer_count", "time_points",
		"same_offer_completed_before", "any_offer_completed_before",
		"gender", "age", "income", "became_member_on",
		"offer_date", "member_date", "member_months",
		"offer_type", "difficulty", "offer_reward", "channels",
	}

	placeholders := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*len(cols))

	argi := 1
	next := func(ph *[]string, cast string) {
		*ph = append(*ph, fmt.Sprintf("$%d%s", argi, cast))
		argi++
	}

	for i := range items {
		rec := &items[i]
		ph := make([]string, 0, len(cols))

		args = append(args, idempotency.InstanceKey(rec.CustomerID, rec.OfferID, rec.InstanceIndex, rec.TimeReceived))
		next(&ph, "")
		args = append(args, w.runID)
		next(&ph, "")
		args = append(args, rec.CustomerID)
		next(&ph, "")
		args = append(args, rec.OfferID)
		next(&ph, "")

		args = append(args, rec.Completed)
		next(&ph, "")
		args = append(args, rec.Viewed)
		next(&ph, "")
		args = append(args, rec.ViewedBefore) // NULL unless completed
		next(&ph, "")

		args = append(args, rec.TimeReceived)
		next(&ph, "")
		args = append(args, rec.TimeViewed)
		next(&ph, "")
		args = append(args, rec.TimeCompleted)
		next(&ph, "")

		args = append(args, rec.OfferDuration)
		next(&ph, "")
		args = append(args, rec.OfferCount)
		next(&ph, "")
		args = append(args, rec.TimePoints)
		next(&ph, "")

		args = append(args, rec.SameOfferCompletedBefore)
		next(&ph, "")
		args = append(args, rec.AnyOfferCompletedBefore)
		next(&ph, "")

		args = append(args, rec.Gender)
		next(&ph, "")
		args = append(args, rec.Age)
		next(&ph, "")
		args = append(args, rec.Income)
		next(&ph, "")
		args = append(args, rec.BecameMemberOn)
		next(&ph, "")

		args = append(args, rec.OfferDate.UTC().Format(dateLayout))
		next(&ph, "::date")
		args = append(args, rec.MemberDate.UTC().Format(dateLayout))
		next(&ph, "::date")
		args = append(args, rec.MemberMonths)
		next(&ph, "")

		args = append(args, rec.OfferType)
		next(&ph, "")
		args = append(args, rec.Difficulty)
		next(&ph, "")
		args = append(args, rec.OfferReward)
		next(&ph, "")

		// channels JSONB (nil or JSON string)
		if len(rec.Channels) == 0 {
			args = append(args, nil)
		} else {
			b, _ := json.Marshal(rec.Channels)
			args = append(args, string(b))
		}
		next(&ph, "::jsonb")

		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
	}

	sql := "INSERT INTO offer_instances (" + strings.Join(cols, ",") + ") VALUES " +
		strings.Join(placeholders, ",") +
		" ON CONFLICT (instance_key) DO NOTHING"

	ct, err := w.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
