package postgres

import (
	"context"
	"fmt"
)

type CompletionTotals struct {
	Instances       int64 `json:"instances"`
	UniqueCustomers int64 `json:"unique_customers"`
	Completed       int64 `json:"completed"`
	Viewed          int64 `json:"viewed"`
}

type ReceiveDayBucket struct {
	Day       int64 `json:"day"` // time_received / 24
	Instances int64 `json:"instances"`
	Completed int64 `json:"completed"`
}

// offerTypeFilter renders the optional offer_type predicate; nil or empty
// means "no filter".
func offerTypeFilter(offerType *string) (string, []any) {
	if offerType != nil && *offerType != "" {
		return " WHERE offer_type=$1", []any{*offerType}
	}
	return "", nil
}

func (db *DB) QueryCompletionTotals(ctx context.Context, offerType *string) (CompletionTotals, error) {
	var res CompletionTotals

	cond, args := offerTypeFilter(offerType)

	sql := `SELECT COUNT(*)::bigint, COUNT(DISTINCT customer_id)::bigint,
  COUNT(*) FILTER (WHERE completed)::bigint,
  COUNT(*) FILTER (WHERE viewed)::bigint
FROM offer_instances` + cond
	row := db.Pool.QueryRow(ctx, sql, args...)
	if err := row.Scan(&res.Instances, &res.UniqueCustomers, &res.Completed, &res.Viewed); err != nil {
		return res, fmt.Errorf("scan totals: %w", err)
	}
	return res, nil
}

// QueryReceiveDayBuckets groups instances by the day offset (from the test
// epoch) on which the offer was received.
func (db *DB) QueryReceiveDayBuckets(ctx context.Context, offerType *string) ([]ReceiveDayBucket, error) {
	cond, args := offerTypeFilter(offerType)

	sql := `
SELECT
  (time_received / 24)::bigint AS day,
  COUNT(*)::bigint AS instances,
  COUNT(*) FILTER (WHERE completed)::bigint AS completed
FROM offer_instances` + cond + `
GROUP BY 1
ORDER BY 1 ASC`

	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReceiveDayBucket
	for rows.Next() {
		var b ReceiveDayBucket
		if err := rows.Scan(&b.Day, &b.Instances, &b.Completed); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
