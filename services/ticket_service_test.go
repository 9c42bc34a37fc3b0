package services

import (
	"bytes"
	"testing"
	"time"

	"freshersparty_go/models"
)

func TestTicketPayloadRoundTrip(t *testing.T) {
	payload := BuildTicketPayload(12, "asha@college.edu", 3)
	if payload != "REG:12:asha@college.edu:3" {
		t.Fatalf("unexpected payload: %q", payload)
	}

	regID, email, eventID, err := ParseTicketPayload(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if regID != 12 || email != "asha@college.edu" || eventID != 3 {
		t.Fatalf("round trip mismatch: got %d %q %d", regID, email, eventID)
	}
}

func TestParseTicketPayloadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty", payload: ""},
		{name: "wrong tag", payload: "TKT:1:a@b.c:2"},
		{name: "too few parts", payload: "REG:1:a@b.c"},
		{name: "too many parts", payload: "REG:1:a@b.c:2:extra"},
		{name: "non-numeric registration id", payload: "REG:x:a@b.c:2"},
		{name: "non-numeric event id", payload: "REG:1:a@b.c:y"},
		{name: "empty email", payload: "REG:1::2"},
		{name: "negative registration id", payload: "REG:-1:a@b.c:2"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, _, _, err := ParseTicketPayload(tc.payload); err == nil {
				t.Fatalf("expected error for %q", tc.payload)
			}
		})
	}
}

func TestTicketPNG(t *testing.T) {
	registration := &models.Registration{
		BaseModel: models.BaseModel{ID: 5},
		EventID:   2,
		Email:     "asha@college.edu",
	}

	png, err := TicketPNG(registration, 256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(png) == 0 {
		t.Fatalf("expected PNG bytes")
	}
	// PNG magic number
	if !bytes.HasPrefix(png, []byte{0x89, 'P', 'N', 'G'}) {
		t.Fatalf("output is not a PNG")
	}
}

func TestTicketPDF(t *testing.T) {
	registration := &models.Registration{
		BaseModel:    models.BaseModel{ID: 5},
		EventID:      2,
		Type:         models.RegistrationTypeSenior,
		FullName:     "Asha Verma",
		Email:        "asha@college.edu",
		StudyingYear: 3,
		Amount:       99,
		QRCode:       "FP2026-2-5-1788264000",
	}
	event := &models.Event{
		Name:      "Fresher's Party 2026",
		EventDate: time.Date(2026, 9, 20, 18, 0, 0, 0, time.UTC),
		Location:  "Main Auditorium",
	}

	pdf, err := TicketPDF(registration, event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}
