package services

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"freshersparty_go/models"
)

// Ticket payloads are plain delimited strings scanned at the door:
// REG:<registrationId>:<email>:<eventId>
const ticketPayloadTag = "REG"

var ErrBadTicketPayload = errors.New("malformed ticket payload")

// BuildTicketPayload serializes the ticket reference.
func BuildTicketPayload(registrationID uint, email string, eventID uint) string {
	return fmt.Sprintf("%s:%d:%s:%d", ticketPayloadTag, registrationID, email, eventID)
}

// ParseTicketPayload recovers the registration id, email and event id from a
// scanned payload.
func ParseTicketPayload(payload string) (registrationID uint, email string, eventID uint, err error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 4 || parts[0] != ticketPayloadTag {
		return 0, "", 0, ErrBadTicketPayload
	}
	regID, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, "", 0, ErrBadTicketPayload
	}
	evID, err := strconv.ParseUint(parts[3], 10, 32)
	if err != nil {
		return 0, "", 0, ErrBadTicketPayload
	}
	if parts[2] == "" {
		return 0, "", 0, ErrBadTicketPayload
	}
	return uint(regID), parts[2], uint(evID), nil
}

// TicketPNG renders the QR code for a confirmed registration as a PNG.
func TicketPNG(registration *models.Registration, size int) ([]byte, error) {
	payload := BuildTicketPayload(registration.ID, registration.Email, registration.EventID)
	return qrcode.Encode(payload, qrcode.Medium, size)
}

// TicketPDF renders a printable one-page ticket: student details, event
// details and the QR code.
func TicketPDF(registration *models.Registration, event *models.Event) ([]byte, error) {
	png, err := TicketPNG(registration, 512)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, event.Name, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("%s | %s", event.EventDate.Format("Mon, 2 Jan 2006 15:04"), event.Location), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, registration.FullName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, registration.Email, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Year %d | %s entry", registration.StudyingYear, registration.Type), "", 1, "C", false, 0, "")
	if registration.Amount > 0 {
		pdf.CellFormat(0, 6, fmt.Sprintf("Paid: Rs. %d", registration.Amount), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("ticket-qr", opts, bytes.NewReader(png))
	pageW, _ := pdf.GetPageSize()
	qrSide := 60.0
	pdf.ImageOptions("ticket-qr", (pageW-qrSide)/2, pdf.GetY(), qrSide, qrSide, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + qrSide + 4)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Ticket ref: %s", registration.QRCode), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Present this QR code at the entrance.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
