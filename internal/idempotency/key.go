package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"example.com/offerpipeline/internal/domain"
	"example.com/offerpipeline/internal/export"
)

// InstanceKey returns a stable identity for one offer instance. A given
// send of a given offer to a given customer always hashes to the same key,
// so re-running the pipeline and re-inserting into the warehouse is a
// no-op for rows already present. The sibling index is part of the
// composite because two sends of the same offer can share a receive
// timestamp and must still be distinct rows.
// We hash the composite to guarantee fixed length.
func InstanceKey(customerID, offerID string, instanceIndex int, timeReceived int64) string {
	composite := fmt.Sprintf("%s|%s|%d|%d", customerID, offerID, instanceIndex, timeReceived)
	sum := sha256.Sum256([]byte(composite))
	return hex.EncodeToString(sum[:])
}

// OutputDigest hashes the full serialized output table. Two runs over
// identical input must produce identical digests; the pipeline has no
// hidden randomness or run-time dependence beyond the configured epoch.
func OutputDigest(recs []domain.EnrichedRecord) (string, error) {
	h := sha256.New()
	if err := export.WriteCSV(h, recs); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
