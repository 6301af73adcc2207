// Package dataload reads the three line-delimited JSON input tables and
// canonicalizes their column names. It enforces the demographic
// preconditions (rows with null gender or income are dropped here) so the
// pipeline core never sees them.
package dataload

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"example.com/offerpipeline/internal/domain"
)

// Input files routinely carry lines longer than bufio's default token cap.
const maxLineBytes = 1 << 20

type portfolioWire struct {
	ID         string   `json:"id"`
	OfferType  string   `json:"offer_type"`
	Difficulty int      `json:"difficulty"`
	Reward     int      `json:"reward"`
	Duration   int      `json:"duration"`
	Channels   []string `json:"channels"`
}

type profileWire struct {
	ID             string   `json:"id"`
	Gender         *string  `json:"gender"`
	Age            int      `json:"age"`
	Income         *float64 `json:"income"`
	BecameMemberOn int      `json:"became_member_on"`
}

type transcriptWire struct {
	Person string          `json:"person"`
	Event  string          `json:"event"`
	Time   int64           `json:"time"`
	Value  json.RawMessage `json:"value"`
}

// The payload union appears under two admissible offer-id spellings;
// completed events additionally repeat the reward, which we ignore.
type valueWire struct {
	OfferID      *string  `json:"offer_id"`
	OfferIDSpace *string  `json:"offer id"`
	Amount       *float64 `json:"amount"`
}

func scanLines(path string, fn func(line int, data []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	n := 0
	for sc.Scan() {
		n++
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := fn(n, sc.Bytes()); err != nil {
			return err
		}
	}
	return sc.Err()
}

// LoadPortfolio reads the offer metadata table and derives duration hours.
func LoadPortfolio(path string) ([]domain.OfferMeta, error) {
	var out []domain.OfferMeta
	err := scanLines(path, func(line int, data []byte) error {
		var w portfolioWire
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("%s:%d: bad portfolio row %q: %w", path, line, data, err)
		}
		if w.Duration <= 0 {
			return fmt.Errorf("%s:%d: offer %q: duration must be positive, got %d", path, line, w.ID, w.Duration)
		}
		out = append(out, domain.OfferMeta{
			OfferID:       w.ID,
			OfferType:     w.OfferType,
			Difficulty:    w.Difficulty,
			Reward:        w.Reward,
			DurationDays:  w.Duration,
			DurationHours: int64(w.Duration) * 24,
			Channels:      w.Channels,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadProfiles reads the demographic table, dropping rows with null gender
// or income. Dropped rows are counted, not errors: the downstream policy
// is to exclude those customers entirely.
func LoadProfiles(path string) (customers []domain.Customer, dropped int, err error) {
	err = scanLines(path, func(line int, data []byte) error {
		var w profileWire
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("%s:%d: bad profile row %q: %w", path, line, data, err)
		}
		if w.Gender == nil || w.Income == nil {
			dropped++
			return nil
		}
		customers = append(customers, domain.Customer{
			CustomerID:     w.ID,
			Gender:         *w.Gender,
			Age:            w.Age,
			Income:         *w.Income,
			BecameMemberOn: w.BecameMemberOn,
		})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return customers, dropped, nil
}

// LoadTranscript reads the raw event stream, coalescing the two offer-id
// payload spellings into the canonical field. Structural problems are hard
// errors carrying the file position and raw line.
func LoadTranscript(path string) ([]domain.RawRecord, error) {
	var out []domain.RawRecord
	err := scanLines(path, func(line int, data []byte) error {
		var w transcriptWire
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("%s:%d: bad transcript row %q: %w", path, line, data, err)
		}
		var v valueWire
		if len(w.Value) > 0 {
			if err := json.Unmarshal(w.Value, &v); err != nil {
				return fmt.Errorf("%s:%d: customer %q: unparseable payload %q: %w", path, line, w.Person, w.Value, err)
			}
		}
		p := domain.Payload{Amount: v.Amount}
		switch {
		case v.OfferID != nil:
			p.OfferID = *v.OfferID
		case v.OfferIDSpace != nil:
			p.OfferID = *v.OfferIDSpace
		}
		out = append(out, domain.RawRecord{
			CustomerID: w.Person,
			Timestamp:  w.Time,
			Kind:       domain.EventKind(w.Event),
			Value:      p,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
