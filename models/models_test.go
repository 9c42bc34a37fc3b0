package models

import "testing"

func TestPaymentVerificationTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{name: "pending to verified", from: VerificationStatusPending, to: VerificationStatusVerified, allowed: true},
		{name: "pending to rejected", from: VerificationStatusPending, to: VerificationStatusRejected, allowed: true},
		{name: "pending to expired", from: VerificationStatusPending, to: VerificationStatusExpired, allowed: true},
		{name: "pending to pending", from: VerificationStatusPending, to: VerificationStatusPending, allowed: false},
		{name: "verified is terminal", from: VerificationStatusVerified, to: VerificationStatusRejected, allowed: false},
		{name: "rejected is terminal", from: VerificationStatusRejected, to: VerificationStatusVerified, allowed: false},
		{name: "expired is terminal", from: VerificationStatusExpired, to: VerificationStatusVerified, allowed: false},
		{name: "pending to unknown state", from: VerificationStatusPending, to: "refunded", allowed: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			pv := PaymentVerification{Status: tc.from}
			if got := pv.CanTransition(tc.to); got != tc.allowed {
				t.Fatalf("CanTransition(%q->%q) = %v, expected %v", tc.from, tc.to, got, tc.allowed)
			}
		})
	}
}

func TestPaymentVerificationTerminal(t *testing.T) {
	pending := PaymentVerification{Status: VerificationStatusPending}
	if pending.Terminal() {
		t.Fatalf("pending must not be terminal")
	}
	for _, status := range []string{VerificationStatusVerified, VerificationStatusRejected, VerificationStatusExpired} {
		pv := PaymentVerification{Status: status}
		if !pv.Terminal() {
			t.Fatalf("%s must be terminal", status)
		}
	}
}

func TestRegistrationConfirmed(t *testing.T) {
	tests := []struct {
		status    string
		confirmed bool
	}{
		{status: PaymentStatusConfirmed, confirmed: true},
		{status: PaymentStatusCompleted, confirmed: true},
		{status: PaymentStatusPending, confirmed: false},
		{status: PaymentStatusFailed, confirmed: false},
		{status: PaymentStatusRefunded, confirmed: false},
	}

	for _, tc := range tests {
		r := Registration{PaymentStatus: tc.status}
		if got := r.Confirmed(); got != tc.confirmed {
			t.Fatalf("Confirmed() with status %q = %v, expected %v", tc.status, got, tc.confirmed)
		}
	}
}

func TestMustJSON(t *testing.T) {
	if v := MustJSON(nil); v != nil {
		t.Fatalf("expected nil for nil input")
	}
	v := MustJSON([]int{1, 2})
	if string(v) != "[1,2]" {
		t.Fatalf("unexpected encoding: %q", string(v))
	}
	if v.IsNull() {
		t.Fatalf("encoded value must not be null")
	}
}
