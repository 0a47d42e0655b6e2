package probe

import (
	"encoding/json"
	"fmt"
)

// VerifyListing checks that ids are unique and strictly ascending.
func VerifyListing(listing []Standing) error {
	for i := 1; i < len(listing); i++ {
		if listing[i].ID <= listing[i-1].ID {
			return fmt.Errorf("%w: entry %d (id %d) does not follow entry %d (id %d)",
				ErrVerification, i, listing[i].ID, i-1, listing[i-1].ID)
		}
	}
	return nil
}

// CompareListings returns the number of listings that differ from the first
// successful one. Nil slots are failed requests and are skipped.
func CompareListings(listings [][]Standing) (reference []Standing, mismatched int) {
	for _, l := range listings {
		if l == nil {
			continue
		}
		if reference == nil {
			reference = l
			continue
		}
		if !sameListing(reference, l) {
			mismatched++
		}
	}
	return reference, mismatched
}

func sameListing(a, b []Standing) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// VerifyClientConfig checks that body is an object carrying a liffId key
// whose value is a string or null. It reports whether the id is set.
func VerifyClientConfig(body map[string]json.RawMessage) (configured bool, err error) {
	raw, ok := body["liffId"]
	if !ok {
		return false, fmt.Errorf("%w: liffId key missing", ErrVerification)
	}
	if string(raw) == "null" {
		return false, nil
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return false, fmt.Errorf("%w: liffId is neither string nor null", ErrVerification)
	}
	return true, nil
}

func totalScore(listing []Standing) int64 {
	var sum int64
	for _, s := range listing {
		sum += s.Score
	}
	return sum
}
