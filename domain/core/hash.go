package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// CohortHash fingerprints the exact set of patients that entered an analysis
type CohortHash Hash

func (h CohortHash) String() string { return Hash(h).String() }

// NewCohortHash hashes the project id together with the sorted patient ids,
// so the same cohort yields the same hash regardless of column order.
func NewCohortHash(project string, patients []PatientID) CohortHash {
	ids := make([]string, len(patients))
	for i, p := range patients {
		ids[i] = string(p)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(project)
	for _, id := range ids {
		b.WriteByte('\n')
		b.WriteString(id)
	}
	return CohortHash(NewHash([]byte(b.String())))
}
