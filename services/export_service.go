package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"freshersparty_go/models"
)

var exportHeader = []string{
	"ID", "Type", "Event", "Name", "Email", "Mobile", "Year",
	"Amount", "Payment Status", "Checked In", "Registered At",
}

func exportRow(r *models.Registration) []string {
	checkedIn := "no"
	if r.CheckedIn {
		checkedIn = "yes"
	}
	return []string{
		strconv.FormatUint(uint64(r.ID), 10),
		r.Type,
		r.Event.Name,
		r.FullName,
		r.Email,
		r.Mobile,
		strconv.Itoa(r.StudyingYear),
		strconv.Itoa(r.Amount),
		r.PaymentStatus,
		checkedIn,
		r.CreatedAt.Format(time.RFC3339),
	}
}

// RegistrationsCSV serializes registrations for the admin export download.
// Callers should have preloaded Event.
func RegistrationsCSV(registrations []models.Registration) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for i := range registrations {
		if err := w.Write(exportRow(&registrations[i])); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RegistrationsXLSX serializes registrations as a single-sheet workbook.
func RegistrationsXLSX(registrations []models.Registration) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, h := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i := range registrations {
		row := exportRow(&registrations[i])
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to build workbook: %v", err)
	}
	return buf.Bytes(), nil
}
