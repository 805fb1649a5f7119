package harness

import (
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGolden compares the stored documents of a result against the golden
// file testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(Snapshot(result)))
}

// Snapshot renders the records of a result in sequence order, each headed by
// its seed and document id.
func Snapshot(result *Result) string {
	var buf strings.Builder
	for _, rec := range result.Records {
		buf.WriteString("# seed=")
		buf.WriteString(strconv.FormatUint(rec.Seed, 10))
		buf.WriteString(" id=")
		buf.WriteString(rec.ID)
		buf.WriteString("\n")
		buf.WriteString(rec.Body)
		if !strings.HasSuffix(rec.Body, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.String()
}
