package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/offerpipeline/internal/domain"
)

var epoch = time.Date(2018, 8, 1, 0, 0, 0, 0, time.UTC)

func inst(cust, offer string, received int64, completed bool) domain.OfferInstance {
	return domain.OfferInstance{
		CustomerID:          cust,
		OfferID:             offer,
		TimeReceived:        received,
		Completed:           completed,
		DurationHours:       168,
		SiblingCount:        1,
		SiblingReceiveTimes: []int64{received},
	}
}

func oneProfile(id string) map[string]domain.Customer {
	return map[string]domain.Customer{
		id: {CustomerID: id, Gender: "F", Age: 40, Income: 60000, BecameMemberOn: 20170101},
	}
}

func TestEnrich_JoinsAndGenderExpansion(t *testing.T) {
	profiles := map[string]domain.Customer{
		"cust-1": {CustomerID: "cust-1", Gender: "F", Age: 55, Income: 112000, BecameMemberOn: 20170715},
	}
	meta := map[string]domain.OfferMeta{
		"offer-a": {OfferID: "offer-a", OfferType: "bogo", Difficulty: 10, Reward: 10, Channels: []string{"email", "web"}},
	}

	in := inst("cust-1", "offer-a", 0, true)
	in.SiblingCount = 2
	in.SiblingReceiveTimes = []int64{0, 168}

	recs, err := Enrich([]domain.OfferInstance{in}, profiles, meta, epoch)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "Female", rec.Gender)
	assert.Equal(t, 55, rec.Age)
	assert.Equal(t, 112000.0, rec.Income)
	assert.Equal(t, "0.168", rec.TimePoints)
	assert.Equal(t, 2, rec.OfferCount)

	require.NotNil(t, rec.OfferType)
	assert.Equal(t, "bogo", *rec.OfferType)
	require.NotNil(t, rec.Difficulty)
	assert.Equal(t, 10, *rec.Difficulty)
	require.NotNil(t, rec.OfferReward)
	assert.Equal(t, 10, *rec.OfferReward)
	assert.Equal(t, []string{"email", "web"}, rec.Channels)
}

func TestEnrich_UnmatchedMetadataKeepsRow(t *testing.T) {
	recs, err := Enrich(
		[]domain.OfferInstance{inst("cust-1", "retired-offer", 0, false)},
		oneProfile("cust-1"),
		map[string]domain.OfferMeta{}, // nothing to join
		epoch,
	)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Nil(t, rec.OfferType)
	assert.Nil(t, rec.Difficulty)
	assert.Nil(t, rec.OfferReward)
	assert.Nil(t, rec.Channels)
	assert.Equal(t, "retired-offer", rec.OfferID)
}

func TestEnrich_MissingProfileIsError(t *testing.T) {
	_, err := Enrich(
		[]domain.OfferInstance{inst("ghost", "offer-a", 0, false)},
		map[string]domain.Customer{},
		map[string]domain.OfferMeta{},
		epoch,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestEnrich_RunningCounters(t *testing.T) {
	// cust-1 completes offer-a twice and offer-b once; ordering is as the
	// reconstructor emits: grouped by offer, chronological within.
	instances := []domain.OfferInstance{
		inst("cust-1", "offer-a", 0, true),
		inst("cust-1", "offer-a", 200, true),
		inst("cust-1", "offer-a", 400, false),
		inst("cust-1", "offer-b", 100, true),
		inst("cust-1", "offer-b", 300, false),
	}

	recs, err := Enrich(instances, oneProfile("cust-1"), nil, epoch)
	require.NoError(t, err)
	require.Len(t, recs, 5)

	// Output order is (customer, time_received).
	byTime := map[int64]domain.EnrichedRecord{}
	for i, rec := range recs {
		byTime[rec.TimeReceived] = rec
		if i > 0 {
			assert.GreaterOrEqual(t, rec.TimeReceived, recs[i-1].TimeReceived)
			assert.GreaterOrEqual(t, rec.AnyOfferCompletedBefore, recs[i-1].AnyOfferCompletedBefore,
				"any-offer counter must be non-decreasing in time")
		}
	}

	// same_offer: prior completions of the same offer id, excluding self.
	assert.Equal(t, 0, byTime[0].SameOfferCompletedBefore)
	assert.Equal(t, 1, byTime[200].SameOfferCompletedBefore)
	assert.Equal(t, 2, byTime[400].SameOfferCompletedBefore)
	assert.Equal(t, 0, byTime[100].SameOfferCompletedBefore)
	assert.Equal(t, 1, byTime[300].SameOfferCompletedBefore)

	// any_offer: prior completions across every offer, excluding self.
	assert.Equal(t, 0, byTime[0].AnyOfferCompletedBefore)   // first instance
	assert.Equal(t, 1, byTime[100].AnyOfferCompletedBefore) // after offer-a@0
	assert.Equal(t, 2, byTime[200].AnyOfferCompletedBefore)
	assert.Equal(t, 3, byTime[300].AnyOfferCompletedBefore)
	assert.Equal(t, 3, byTime[400].AnyOfferCompletedBefore)
}

func TestEnrich_InputOrderIndependent(t *testing.T) {
	ordered := []domain.OfferInstance{
		inst("cust-1", "offer-a", 0, true),
		inst("cust-1", "offer-a", 200, true),
		inst("cust-1", "offer-a", 400, false),
		inst("cust-1", "offer-b", 100, true),
		inst("cust-1", "offer-b", 300, false),
	}
	shuffled := []domain.OfferInstance{
		ordered[4], ordered[1], ordered[3], ordered[0], ordered[2],
	}

	want, err := Enrich(ordered, oneProfile("cust-1"), nil, epoch)
	require.NoError(t, err)
	got, err := Enrich(shuffled, oneProfile("cust-1"), nil, epoch)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	// The caller's slice is not reordered in place.
	assert.Equal(t, int64(300), shuffled[0].TimeReceived)
}

func TestEnrich_CountersStartAtZeroPerCustomer(t *testing.T) {
	profiles := map[string]domain.Customer{
		"cust-1": {CustomerID: "cust-1", Gender: "M", Age: 30, Income: 40000, BecameMemberOn: 20180101},
		"cust-2": {CustomerID: "cust-2", Gender: "O", Age: 61, Income: 80000, BecameMemberOn: 20160315},
	}
	instances := []domain.OfferInstance{
		inst("cust-1", "offer-a", 0, true),
		inst("cust-2", "offer-a", 50, true),
	}

	recs, err := Enrich(instances, profiles, nil, epoch)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Zero(t, rec.SameOfferCompletedBefore)
		assert.Zero(t, rec.AnyOfferCompletedBefore)
	}
}

func TestMemberMonths(t *testing.T) {
	tests := []struct {
		name   string
		offer  time.Time
		member time.Time
		want   int
	}{
		{
			// membership 2018-07-15, offer at epoch+10d = 2018-08-11:
			// one July→August crossing even though under 30 days elapsed
			name:   "month crossing under 30 days",
			offer:  time.Date(2018, 8, 11, 0, 0, 0, 0, time.UTC),
			member: time.Date(2018, 7, 15, 0, 0, 0, 0, time.UTC),
			want:   1,
		},
		{
			name:   "same month",
			offer:  time.Date(2018, 8, 30, 0, 0, 0, 0, time.UTC),
			member: time.Date(2018, 8, 1, 0, 0, 0, 0, time.UTC),
			want:   0,
		},
		{
			name:   "year crossing",
			offer:  time.Date(2018, 2, 1, 0, 0, 0, 0, time.UTC),
			member: time.Date(2016, 11, 20, 0, 0, 0, 0, time.UTC),
			want:   15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, memberMonths(tt.offer, tt.member))
		})
	}
}

func TestEnrich_TenureScenario(t *testing.T) {
	profiles := map[string]domain.Customer{
		"cust-1": {CustomerID: "cust-1", Gender: "F", Age: 44, Income: 70000, BecameMemberOn: 20180715},
	}
	// epoch + 10 days = 2018-08-11
	recs, err := Enrich([]domain.OfferInstance{inst("cust-1", "offer-a", 240, false)}, profiles, nil, epoch)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, time.Date(2018, 8, 11, 0, 0, 0, 0, time.UTC), recs[0].OfferDate)
	assert.Equal(t, time.Date(2018, 7, 15, 0, 0, 0, 0, time.UTC), recs[0].MemberDate)
	assert.Equal(t, 1, recs[0].MemberMonths)
}
