package normalization

import "testing"

func TestParseInputString(t *testing.T) {
	cases := map[string]string{
		"  User@Example.COM ": "user@example.com",
		"plain":               "plain",
		"   ":                 "",
	}
	for in, want := range cases {
		if got := ParseInputString(in); got != want {
			t.Fatalf("ParseInputString(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrimName(t *testing.T) {
	cases := map[string]string{
		"  Linear   Algebra ":   "Linear Algebra",
		"Matrix\tTheory":        "Matrix Theory",
		"One\nTwo":              "One Two",
		"Keeps Case UNCHANGED":  "Keeps Case UNCHANGED",
		"":                      "",
		" \t\n ":                "",
	}
	for in, want := range cases {
		if got := TrimName(in); got != want {
			t.Fatalf("TrimName(%q) = %q, want %q", in, got, want)
		}
	}
}
