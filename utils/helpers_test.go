package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if err := CheckPassword("s3cret-pass", hash); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
	if err := CheckPassword("wrong-pass", hash); err == nil {
		t.Fatalf("wrong password accepted")
	}
}

func TestGenerateOTP(t *testing.T) {
	otp, err := GenerateOTP()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(otp) != 6 {
		t.Fatalf("expected 6 digits, got %q", otp)
	}
	for _, r := range otp {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit in OTP: %q", otp)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{email: "student@college.edu", valid: true},
		{email: "a.b+c@example.com", valid: true},
		{email: "not-an-email", valid: false},
		{email: "", valid: false},
		{email: "@missing-local.com", valid: false},
	}

	for _, tc := range tests {
		if got := IsValidEmail(tc.email); got != tc.valid {
			t.Fatalf("IsValidEmail(%q) = %v, expected %v", tc.email, got, tc.valid)
		}
	}
}

func TestIsValidStudyingYear(t *testing.T) {
	for year := 1; year <= 4; year++ {
		if !IsValidStudyingYear(year) {
			t.Fatalf("year %d must be valid", year)
		}
	}
	for _, year := range []int{0, -1, 5, 10} {
		if IsValidStudyingYear(year) {
			t.Fatalf("year %d must be invalid", year)
		}
	}
}
