package anonymizer

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cuemby/districtmig/pkg/types"
)

// syntheticEmailDomain is the fixed suffix every synthetic email
// carries, so the leak scan can tell a generated address from a
// real one on sight instead of guessing at arbitrary fake domains.
const syntheticEmailDomain = "example.org"

const hashDigestLength = 16

// stringify renders any decoded cell value as the string the hash
// strategy digests; nil is handled by the caller before this is
// reached.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// hashValue implements the hash strategy: algorithm(stringify(original)
// || salt), truncated to hashDigestLength hex characters.
func hashValue(original, salt string, algo types.HashAlgorithm) string {
	var sum []byte
	switch algo {
	case types.HashSHA512:
		h := sha512.Sum512([]byte(original + salt))
		sum = h[:]
	default:
		h := sha256.Sum256([]byte(original + salt))
		sum = h[:]
	}
	digest := hex.EncodeToString(sum)
	if len(digest) > hashDigestLength {
		digest = digest[:hashDigestLength]
	}
	return digest
}

// synthesize produces a fresh synthetic value of the rule's declared
// shape. It never consults the consistency map; the caller is
// responsible for resolving repeats to a prior mapping.
func synthesize(rule types.AnonymizationRule) string {
	switch rule.FakerType {
	case "email":
		return fmt.Sprintf("%s@%s", gofakeit.Username(), syntheticEmailDomain)
	case "first_name", "given_name":
		return gofakeit.FirstName()
	case "last_name", "family_name":
		return gofakeit.LastName()
	case "full_name", "name":
		return gofakeit.Name()
	case "phone", "phone_number":
		return gofakeit.Phone()
	case "street", "street_address":
		return gofakeit.Street()
	case "city":
		return gofakeit.City()
	case "postal_code", "zip", "zip_code":
		return gofakeit.Zip()
	case "username":
		return gofakeit.Username()
	case "ipv4":
		return gofakeit.IPv4Address()
	case "url":
		return gofakeit.URL()
	case "date_of_birth", "birth_date":
		return dateOfBirth(rule.MinAge, rule.MaxAge)
	default:
		return gofakeit.Word()
	}
}

// dateOfBirth returns a random date, formatted as columnar.DateLayout,
// bounded so the resulting age falls within [minAge, maxAge].
func dateOfBirth(minAge, maxAge int) string {
	if maxAge <= 0 {
		maxAge = 90
	}
	if minAge <= 0 {
		minAge = 1
	}
	if minAge > maxAge {
		minAge, maxAge = maxAge, minAge
	}
	now := time.Now()
	oldest := now.AddDate(-maxAge, 0, 0)
	youngest := now.AddDate(-minAge, 0, 0)
	span := youngest.Sub(oldest)
	if span <= 0 {
		return oldest.Format("2006-01-02")
	}
	offset := time.Duration(rand.Int63n(int64(span)))
	return oldest.Add(offset).Format("2006-01-02")
}
