package services

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"freshersparty_go/models"
)

func exportFixtures() []models.Registration {
	return []models.Registration{
		{
			BaseModel:     models.BaseModel{ID: 1},
			Type:          models.RegistrationTypeFresher,
			FullName:      "Asha Verma",
			Email:         "asha@college.edu",
			Mobile:        "9876543210",
			StudyingYear:  1,
			Amount:        0,
			PaymentStatus: models.PaymentStatusConfirmed,
			Event:         models.Event{Name: "Fresher's Party 2026"},
		},
		{
			BaseModel:     models.BaseModel{ID: 2},
			Type:          models.RegistrationTypeSenior,
			FullName:      "Rohan Iyer",
			Email:         "rohan@college.edu",
			StudyingYear:  3,
			Amount:        99,
			PaymentStatus: models.PaymentStatusCompleted,
			CheckedIn:     true,
			Event:         models.Event{Name: "Fresher's Party 2026"},
		},
	}
}

func TestRegistrationsCSV(t *testing.T) {
	data, err := RegistrationsCSV(exportFixtures())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	if records[0][0] != "ID" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][3] != "Asha Verma" || records[1][9] != "no" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[2][7] != "99" || records[2][9] != "yes" {
		t.Fatalf("unexpected second row: %v", records[2])
	}
}

func TestRegistrationsXLSX(t *testing.T) {
	data, err := RegistrationsXLSX(exportFixtures())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// xlsx files are zip archives
	if !strings.HasPrefix(string(data), "PK") {
		t.Fatalf("output is not a workbook")
	}
}
