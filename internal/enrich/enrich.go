// Package enrich implements the final pipeline stage: joining
// reconstructed offer instances with demographics and offer metadata and
// deriving the per-customer history columns.
package enrich

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"example.com/offerpipeline/internal/domain"
)

var genderLabels = map[string]string{
	"F": "Female",
	"M": "Male",
	"O": "Other",
}

func genderLabel(code string) string {
	if l, ok := genderLabels[code]; ok {
		return l
	}
	return code
}

func timePoints(ts []int64) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = strconv.FormatInt(t, 10)
	}
	return strings.Join(parts, ".")
}

// memberMonths is the whole calendar-month difference between the offer
// date and the membership start. Day-of-month alignment is ignored: only
// month/year crossings count, so fewer than 30 elapsed days can still be
// one month, and 29 days inside the same month is zero.
func memberMonths(offerDate, memberDate time.Time) int {
	return 12*(offerDate.Year()-memberDate.Year()) + int(offerDate.Month()) - int(memberDate.Month())
}

// Enrich joins each instance with its customer (inner; the normalizer
// already dropped customers without demographics, so a miss here is a
// pipeline bug) and its offer metadata (left; a miss leaves the metadata
// columns nil), then computes the two running prior-completion counters.
// Records come back sorted by (customer_id, time_received), the ordering
// the any-offer counter is defined over.
func Enrich(instances []domain.OfferInstance, profiles map[string]domain.Customer, meta map[string]domain.OfferMeta, epoch time.Time) ([]domain.EnrichedRecord, error) {
	recs := make([]domain.EnrichedRecord, 0, len(instances))

	// The same-offer counter is defined over (customer_id, offer_id,
	// time_received) order. The reconstructor already emits that order,
	// but sort a copy anyway so the function does not depend on its
	// caller; the input slice stays untouched.
	sorted := append([]domain.OfferInstance(nil), instances...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CustomerID != sorted[j].CustomerID {
			return sorted[i].CustomerID < sorted[j].CustomerID
		}
		if sorted[i].OfferID != sorted[j].OfferID {
			return sorted[i].OfferID < sorted[j].OfferID
		}
		return sorted[i].TimeReceived < sorted[j].TimeReceived
	})

	samePrior := make(map[[2]string]int)
	for _, inst := range sorted {
		cust, ok := profiles[inst.CustomerID]
		if !ok {
			return nil, fmt.Errorf("instance for customer %q has no demographic row; normalizer should have dropped it", inst.CustomerID)
		}

		offerDate := epoch.Add(time.Duration(inst.TimeReceived) * time.Hour)
		memberDate := cust.MemberDate()

		rec := domain.EnrichedRecord{
			CustomerID:    inst.CustomerID,
			OfferID:       inst.OfferID,
			InstanceIndex: inst.InstanceIndex,
			Completed:     inst.Completed,
			Viewed:        inst.Viewed,
			ViewedBefore:  inst.ViewedBefore,
			TimeReceived:  inst.TimeReceived,
			TimeViewed:    inst.TimeViewed,
			TimeCompleted: inst.TimeCompleted,
			OfferDuration: inst.DurationHours,
			OfferCount:    inst.SiblingCount,
			TimePoints:    timePoints(inst.SiblingReceiveTimes),

			Gender:         genderLabel(cust.Gender),
			Age:            cust.Age,
			Income:         cust.Income,
			BecameMemberOn: cust.BecameMemberOn,
			OfferDate:      offerDate,
			MemberDate:     memberDate,
			MemberMonths:   memberMonths(offerDate, memberDate),
		}

		if m, ok := meta[inst.OfferID]; ok {
			ot, diff, rew := m.OfferType, m.Difficulty, m.Reward
			rec.OfferType = &ot
			rec.Difficulty = &diff
			rec.OfferReward = &rew
			rec.Channels = m.Channels
		}

		gk := [2]string{inst.CustomerID, inst.OfferID}
		rec.SameOfferCompletedBefore = samePrior[gk]
		if inst.Completed {
			samePrior[gk]++
		}

		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].CustomerID != recs[j].CustomerID {
			return recs[i].CustomerID < recs[j].CustomerID
		}
		return recs[i].TimeReceived < recs[j].TimeReceived
	})

	anyPrior := make(map[string]int)
	for i := range recs {
		recs[i].AnyOfferCompletedBefore = anyPrior[recs[i].CustomerID]
		if recs[i].Completed {
			anyPrior[recs[i].CustomerID]++
		}
	}

	return recs, nil
}
