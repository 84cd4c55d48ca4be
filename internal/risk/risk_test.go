package risk

import "testing"

func TestAllow(t *testing.T) {
	l := Limits{MaxNotionalPerTrade: 100}
	if !l.Allow(100) {
		t.Fatalf("notional at the cap should pass")
	}
	if l.Allow(100.01) {
		t.Fatalf("notional above the cap should be refused")
	}
}

func TestZeroCapDisablesCheck(t *testing.T) {
	var l Limits
	if !l.Allow(1e9) {
		t.Fatalf("zero cap should allow everything")
	}
}
