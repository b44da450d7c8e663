package utils

import (
	"strings"
	"testing"
)

func TestSessionCode(t *testing.T) {
	code := SessionCode(482)
	t.Logf("Generated Session Code: %s", code)

	if !strings.HasPrefix(code, "UMX482") {
		t.Errorf("Code should start with UMX482, got %s", code)
	}

	suffix := strings.TrimPrefix(code, "UMX482")
	if len(suffix) != 3 {
		t.Errorf("Suffix should be 3 letters, got %q", suffix)
	}
	for _, c := range suffix {
		if !strings.ContainsRune(CodeLetters, c) {
			t.Errorf("Suffix letter %q not in alphabet", c)
		}
	}
}

func TestLegTags(t *testing.T) {
	code := "UMX17QRZ"

	if got := DriverTag(code); got != "UMX17QRZ-CND" {
		t.Errorf("DriverTag = %s, want UMX17QRZ-CND", got)
	}
	if got := VisitorTag(code, 1); got != "UMX17QRZ-V01" {
		t.Errorf("VisitorTag(1) = %s, want UMX17QRZ-V01", got)
	}
	if got := VisitorTag(code, 12); got != "UMX17QRZ-V12" {
		t.Errorf("VisitorTag(12) = %s, want UMX17QRZ-V12", got)
	}
	if got := SpecialTag(code, "prv"); got != "UMX17QRZ-PRV" {
		t.Errorf("SpecialTag = %s, want UMX17QRZ-PRV", got)
	}
}

func TestParseTag(t *testing.T) {
	code, suffix, err := ParseTag("UMX482KPA-V03")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if code != "UMX482KPA" {
		t.Errorf("Code mismatch: got %s, want UMX482KPA", code)
	}
	if suffix != "V03" {
		t.Errorf("Suffix mismatch: got %s, want V03", suffix)
	}

	for _, bad := range []string{"", "UMX482KPA", "UMX482KPA-", "-CND", "ABC1-CND"} {
		if _, _, err := ParseTag(bad); err == nil {
			t.Errorf("ParseTag(%q) should fail", bad)
		}
	}
}

func TestValidCardNumber(t *testing.T) {
	testCases := []struct {
		card string
		want bool
	}{
		{"0042", true},
		{"1", true},
		{"999999", true},
		{"", false},
		{"1234567", false},
		{"00A2", false},
		{"42 ", false},
	}

	for _, tc := range testCases {
		if got := ValidCardNumber(tc.card); got != tc.want {
			t.Errorf("ValidCardNumber(%q) = %v, want %v", tc.card, got, tc.want)
		}
	}
}
