package domain

import (
	"testing"
)

// FuzzParsePlanID checks that parsing never panics and that every accepted
// id survives a round trip.
func FuzzParsePlanID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParsePlanID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Fatal("parsed nil plan id")
		}
		roundTrip, err := ParsePlanID(id.String())
		if err != nil {
			t.Fatalf("round trip failed: %v", err)
		}
		if roundTrip != id {
			t.Fatal("round trip changed id")
		}
	})
}

func FuzzParseContentHash(f *testing.F) {
	f.Add("")
	f.Add("0x")
	f.Add("abababababababababababababababababababababababababababababababab")

	f.Fuzz(func(t *testing.T, input string) {
		h, err := ParseContentHash(input)
		if err != nil {
			return
		}
		again, err := ParseContentHash(h.String())
		if err != nil || again != h {
			t.Fatalf("round trip failed for %q", input)
		}
	})
}
