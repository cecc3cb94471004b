package wheel_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/allocraft/wheel-engine/wheel"
)

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := wheel.ParseDate("2025-02-21")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-02-21" {
		t.Errorf("expected 2025-02-21, got %s", d)
	}
}

func TestParseDate_RejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "21/02/2025", "2025-13-01", "tomorrow"} {
		if _, err := wheel.ParseDate(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestDate_ComparisonStripsTimeOfDay(t *testing.T) {
	// Two instants on the same calendar day compare equal.
	morning := wheel.DateOf(time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC))
	evening := wheel.DateOf(time.Date(2025, time.March, 10, 23, 59, 0, 0, time.UTC))

	if !morning.Equal(evening) {
		t.Error("same calendar day must compare equal")
	}
	if morning.Before(evening) || morning.After(evening) {
		t.Error("same calendar day must not order")
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := wheel.NewDate(2025, time.January, 10)

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `"2025-01-10"` {
		t.Errorf("unexpected encoding %s", raw)
	}

	var back wheel.Date
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("round trip changed the date: %s", back)
	}
}

func TestDate_ZeroJSON(t *testing.T) {
	var d wheel.Date

	raw, _ := json.Marshal(d)
	if string(raw) != `""` {
		t.Errorf("zero date should encode as empty string, got %s", raw)
	}

	var back wheel.Date
	if err := json.Unmarshal([]byte(`""`), &back); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if !back.IsZero() {
		t.Error("empty string should decode to the zero date")
	}
	if err := json.Unmarshal([]byte(`null`), &back); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
}

func TestFormatUSD(t *testing.T) {
	cases := map[string]string{
		"150":    "$150.00",
		"2.5":    "$2.50",
		"0":      "$0.00",
		"-1.25":  "-$1.25",
		"160.005": "$160.01",
	}
	for in, want := range cases {
		if got := wheel.FormatUSD(wheel.MustParseDecimal(in)); got != want {
			t.Errorf("FormatUSD(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestMustParseDecimal_PanicsOnMalformed(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for malformed input")
		}
	}()
	wheel.MustParseDecimal("not-a-number")
}
