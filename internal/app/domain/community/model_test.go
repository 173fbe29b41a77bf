package community

import "testing"

func TestFilterMatches(t *testing.T) {
	c := Community{
		Name:        "Riverside Fellowship",
		Description: "Families meeting for a shared meal",
		City:        "Portland",
		MeetingDay:  "Sunday",
		IsPublic:    true,
		Tags:        []string{"families", "worship"},
		TrustLevel:  TrustNew,
	}

	cases := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"query name", Filter{Query: "riverSIDE"}, true},
		{"query description", Filter{Query: "meal"}, true},
		{"query tag", Filter{Query: "worsh"}, true},
		{"query miss", Filter{Query: "liturgy"}, false},
		{"city exact", Filter{City: "portland"}, true},
		{"city partial is not exact", Filter{City: "Port"}, false},
		{"tag exact", Filter{Tag: "Families"}, true},
		{"trust mismatch", Filter{TrustLevel: TrustVerified}, false},
		{"meeting day", Filter{MeetingDay: "sunday"}, true},
		{"parent mismatch", Filter{ParentID: "p1"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(c); got != tc.want {
				t.Fatalf("Matches() = %v, want %v", got, tc.want)
			}
		})
	}

	private := c
	private.IsPublic = false
	if (Filter{PublicOnly: true}).Matches(private) {
		t.Fatalf("private community should not match public-only filter")
	}
}

func TestTrustLevelValid(t *testing.T) {
	for _, lvl := range []TrustLevel{TrustNew, TrustEstablished, TrustVerified, TrustEndorsed} {
		if !lvl.Valid() {
			t.Fatalf("%s should be valid", lvl)
		}
	}
	if TrustLevel("Trusted").Valid() {
		t.Fatalf("unknown label should be invalid")
	}
}
