package filter

import "testing"

func TestFilterLongestPrefixWins(t *testing.T) {
	f := New(
		[]string{"Windows.Foundation", "Windows.UI.Xaml.Controls"},
		[]string{"Windows.Foundation.Diagnostics", "Windows.UI"},
	)
	cases := []struct {
		name string
		want bool
	}{
		{"Windows.Foundation.Uri", true},
		{"Windows.Foundation.Diagnostics.LoggingChannel", false},
		{"Windows.UI.Colors", false},
		{"Windows.UI.Xaml.Controls.Button", true},
		{"Windows.Storage.StorageFile", false},
	}
	for _, tc := range cases {
		if got := f.Includes(tc.name); got != tc.want {
			t.Fatalf("Includes(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFilterNoIncludeRulesPassesUnmatched(t *testing.T) {
	f := New(nil, []string{"Windows.Devices"})
	if !f.Includes("Windows.Storage.StorageFile") {
		t.Fatalf("unmatched name should pass without include rules")
	}
	if f.Includes("Windows.Devices.Enumeration.DeviceInformation") {
		t.Fatalf("excluded prefix should not pass")
	}
}

func TestFilterTieExcludeWins(t *testing.T) {
	f := New([]string{"A.B"}, []string{"A.B"})
	if f.Includes("A.B.C") {
		t.Fatalf("exclude should win a tie")
	}
}

func TestFilterWildcardSuffix(t *testing.T) {
	f := New([]string{"Windows.Foundation.*"}, nil)
	if got := f.Include(); len(got) != 1 || got[0] != "Windows.Foundation" {
		t.Fatalf("normalised include = %v", got)
	}
	if !f.IncludesType("Windows.Foundation", "Uri") {
		t.Fatalf("Uri should pass")
	}
}

func TestFilterMayInclude(t *testing.T) {
	f := New([]string{"Windows.UI.Xaml"}, []string{"Windows.UI.Xaml.Media"})
	if !f.MayInclude("Windows.UI") {
		t.Fatalf("parent of an include rule may have included types")
	}
	if f.MayInclude("Windows.Storage") {
		t.Fatalf("unrelated namespace should be rejected")
	}
	if f.MayInclude("Windows.UI.Xaml.Media") {
		t.Fatalf("excluded namespace should be rejected")
	}
}

func TestNilAndEmptyFilter(t *testing.T) {
	var f *Filter
	if !f.Includes("Anything") || !f.IsEmpty() || f.String() != "*" {
		t.Fatalf("nil filter should pass everything")
	}
	if New(nil, nil).String() != "*" {
		t.Fatalf("empty filter should render as *")
	}
	if New([]string{"B", "A", "A"}, []string{"C"}).String() != "+A;+B;-C;" {
		t.Fatalf("unexpected rendering")
	}
}
