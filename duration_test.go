package bazbom

import (
	"testing"
	"time"
)

func TestDurationRoundTrip(t *testing.T) {
	want := Duration(90 * time.Second)
	text, err := want.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var got Duration
	if err := got.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText(%q): %v", text, err)
	}
	if got != want {
		t.Fatalf("round trip = %v, want %v", got, want)
	}
}

func TestDurationUnmarshalInvalid(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("not-a-duration")); err == nil {
		t.Fatal("expected an error for a malformed duration string")
	}
}

func TestDurationMarshalNil(t *testing.T) {
	var d *Duration
	if _, err := d.MarshalText(); err == nil {
		t.Fatal("expected an error marshalling a nil *Duration")
	}
}
