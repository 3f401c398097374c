package record

import (
	"errors"
	"testing"
)

func TestParseBloodType(t *testing.T) {
	for _, valid := range []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-", "Unknown"} {
		if _, err := ParseBloodType(valid); err != nil {
			t.Errorf("ParseBloodType(%q): %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "C+", "o-", "unknown", "AB"} {
		if _, err := ParseBloodType(invalid); !errors.Is(err, ErrValidation) {
			t.Errorf("ParseBloodType(%q): want ErrValidation, got %v", invalid, err)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	for _, valid := range []string{"critical", "high", "moderate", "low"} {
		if _, err := ParseSeverity(valid); err != nil {
			t.Errorf("ParseSeverity(%q): %v", valid, err)
		}
	}
	if _, err := ParseSeverity("Critical"); !errors.Is(err, ErrValidation) {
		t.Errorf("case-sensitive parse: got %v", err)
	}
}

func TestSeverityEmergency(t *testing.T) {
	cases := map[Severity]bool{
		SeverityCritical: true,
		SeverityHigh:     true,
		SeverityModerate: false,
		SeverityLow:      false,
	}
	for sev, want := range cases {
		if got := sev.Emergency(); got != want {
			t.Errorf("%s.Emergency() = %v, want %v", sev, got, want)
		}
	}
}

func TestParseConditionStatus(t *testing.T) {
	for _, valid := range []string{"active", "managed", "resolved"} {
		if _, err := ParseConditionStatus(valid); err != nil {
			t.Errorf("ParseConditionStatus(%q): %v", valid, err)
		}
	}
	if _, err := ParseConditionStatus("chronic"); !errors.Is(err, ErrValidation) {
		t.Errorf("want ErrValidation, got %v", err)
	}
}
