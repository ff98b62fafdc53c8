package countries

import (
	"testing"
)

func TestValid(t *testing.T) {
	for _, code := range []string{"IR", "ir", " us ", "DE"} {
		if !Valid(code) {
			t.Fatalf("expected %q to be valid", code)
		}
	}
	for _, code := range []string{"", "XX", "IRN", "USA"} {
		if Valid(code) {
			t.Fatalf("expected %q to be invalid", code)
		}
	}
}

func TestName(t *testing.T) {
	name, ok := Name("ir")
	if !ok || name != "Iran" {
		t.Fatalf("unexpected name for ir: %q %v", name, ok)
	}
	if _, ok := Name("ZZ"); ok {
		t.Fatalf("ZZ must not resolve")
	}
}

func TestSuggestNearbyCode(t *testing.T) {
	got := Suggest("IRN")
	if len(got) == 0 {
		t.Fatalf("expected suggestions for IRN")
	}
	if !contains(got, "IR") {
		t.Fatalf("expected IR among suggestions, got %v", got)
	}
}

func TestSuggestByCountryName(t *testing.T) {
	got := Suggest("germany")
	if !contains(got, "DE") {
		t.Fatalf("expected DE for germany, got %v", got)
	}
}

func TestSuggestLimitsAndEmptyInput(t *testing.T) {
	if got := Suggest(""); got != nil {
		t.Fatalf("empty input must yield nil, got %v", got)
	}
	if got := Suggest("A"); len(got) > 3 {
		t.Fatalf("expected at most 3 suggestions, got %v", got)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
