// Package reconstruct rebuilds per-customer offer lifecycles from the
// normalized event stream: which sends of which offers were viewed and
// completed, and when.
package reconstruct

import (
	"fmt"
	"sort"

	"example.com/offerpipeline/internal/domain"
)

type pairKey struct {
	customer string
	offer    string
}

// Reconstruct emits one OfferInstance per "received" event, grouped by
// customer, then offer id, then chronologically by receive time. Events
// are pre-grouped into a (customer, offer) index once; each instance then
// scans only its own group.
//
// When sibling instances have overlapping active windows, a view or
// completion event inside the overlap is credited to every window that
// contains it. Each window's scan is independent; there is no
// cross-instance event exclusivity. Downstream consumers were calibrated
// against that double-attribution, so it is preserved here.
func Reconstruct(events []domain.Event, meta map[string]domain.OfferMeta) ([]domain.OfferInstance, error) {
	byPair := make(map[pairKey][]domain.Event)
	for _, ev := range events {
		k := pairKey{ev.CustomerID, ev.OfferID}
		byPair[k] = append(byPair[k], ev)
	}

	keys := make([]pairKey, 0, len(byPair))
	for k := range byPair {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].customer != keys[j].customer {
			return keys[i].customer < keys[j].customer
		}
		return keys[i].offer < keys[j].offer
	})

	var out []domain.OfferInstance
	for _, k := range keys {
		evs := byPair[k]
		sort.SliceStable(evs, func(i, j int) bool { return evs[i].Timestamp < evs[j].Timestamp })

		receiveTimes := make([]int64, 0, len(evs))
		for _, ev := range evs {
			if ev.Kind == domain.KindReceived {
				receiveTimes = append(receiveTimes, ev.Timestamp)
			}
		}
		if len(receiveTimes) == 0 {
			// Viewed/completed events with no send on record; nothing to
			// anchor a window to.
			continue
		}

		m, ok := meta[k.offer]
		if !ok {
			return nil, fmt.Errorf("customer %q received offer %q which has no portfolio metadata (duration unknown)", k.customer, k.offer)
		}

		for idx, t := range receiveTimes {
			out = append(out, buildInstance(k, evs, idx, t, receiveTimes, m.DurationHours))
		}
	}
	return out, nil
}

// buildInstance scans one active window [t, t+duration] for the earliest
// view and completion events.
func buildInstance(k pairKey, evs []domain.Event, idx int, t int64, receiveTimes []int64, duration int64) domain.OfferInstance {
	inst := domain.OfferInstance{
		CustomerID:          k.customer,
		OfferID:             k.offer,
		InstanceIndex:       idx,
		TimeReceived:        t,
		DurationHours:       duration,
		SiblingCount:        len(receiveTimes),
		SiblingReceiveTimes: receiveTimes,
	}

	// evs is sorted ascending, so the first hit of each kind is the
	// earliest in the window.
	for _, ev := range evs {
		if ev.Timestamp < t {
			continue
		}
		if ev.Timestamp > t+duration {
			break
		}
		switch ev.Kind {
		case domain.KindViewed:
			if !inst.Viewed {
				inst.Viewed = true
				ts := ev.Timestamp
				inst.TimeViewed = &ts
			}
		case domain.KindCompleted:
			if !inst.Completed {
				inst.Completed = true
				ts := ev.Timestamp
				inst.TimeCompleted = &ts
			}
		}
	}

	if inst.Completed {
		// A view at the exact completion instant still counts as viewed
		// before completion.
		vb := inst.Viewed && *inst.TimeViewed <= *inst.TimeCompleted
		inst.ViewedBefore = &vb
	}
	return inst
}
