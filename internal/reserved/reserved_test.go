package reserved

import "testing"

// TestLookupMatchesLinearScan checks that binary search returns the
// same entry as a linear scan for every reserved name, plus nil for
// names that aren't reserved.
func TestLookupMatchesLinearScan(t *testing.T) {
	for i := 0; i < Len(); i++ {
		name := At(i).Name
		got := Lookup(name)
		want := LookupLinear(name)
		if got != want {
			t.Fatalf("Lookup(%q) = %v, LookupLinear = %v", name, got, want)
		}
	}

	for _, miss := range []string{"", "notareservedword", "$33", "ADD", ".unknown"} {
		if got := Lookup(miss); got != nil {
			t.Errorf("Lookup(%q) = %v, want nil", miss, got)
		}
		if got := LookupLinear(miss); got != nil {
			t.Errorf("LookupLinear(%q) = %v, want nil", miss, got)
		}
	}
}

func TestRegisterAliases(t *testing.T) {
	cases := []struct {
		name string
		num  int
	}{
		{"$0", 0}, {"$zero", 0}, {"$31", 31}, {"$ra", 31},
		{"$sp", 29}, {"$fp", 30}, {"$s8", 30}, {"$t9", 25},
	}
	for _, c := range cases {
		e := Lookup(c.name)
		if e == nil {
			t.Fatalf("Lookup(%q) = nil", c.name)
		}
		if e.RegNum != c.num {
			t.Errorf("Lookup(%q).RegNum = %d, want %d", c.name, e.RegNum, c.num)
		}
	}
}

func TestMnemonicAndDirectiveLookup(t *testing.T) {
	if e := Lookup("add"); e == nil || e.Descriptor == nil {
		t.Errorf("Lookup(\"add\") should resolve to a descriptor")
	}
	if e := Lookup(".word"); e == nil || e.Descriptor == nil {
		t.Errorf("Lookup(\".word\") should resolve to a descriptor")
	}
}
