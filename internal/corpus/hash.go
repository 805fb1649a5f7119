package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity. The version suffix allows
// the algorithm to change without colliding with old ids.
const (
	DomainDocument = "domfuzz/document/v1"
	DomainRun      = "domfuzz/run/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentID returns the id of a serialized document. The body is NFC
// normalized first, so canonically equivalent texts share an id.
func DocumentID(body string) string {
	return hashWithDomain(DomainDocument, norm.NFC.Bytes([]byte(body)))
}

// RunID identifies a batch by the inputs that determine its documents.
func RunID(grammar, mode string, seed uint64, count int) string {
	fields := []string{
		norm.NFC.String(grammar),
		mode,
		strconv.FormatUint(seed, 10),
		strconv.Itoa(count),
	}
	return hashWithDomain(DomainRun, []byte(strings.Join(fields, "\x00")))
}
