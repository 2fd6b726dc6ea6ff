package outing

import (
	"bytes"
	"fmt"
	"image/png"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf"
)

const qrImageSize = 256

// CurrentQRPayload picks the credential the student's device should render
// right now: the incoming credential once it exists and has not expired,
// otherwise the outgoing one while the pass is available.
func CurrentQRPayload(req *OutingRequest, now time.Time) (string, error) {
	gp := req.GatePass
	if gp != nil && gp.IncomingQRGenerated && gp.IncomingQRExpiresAt != nil &&
		!now.After(*gp.IncomingQRExpiresAt) && req.VerificationStatus != VerificationCompleted {
		return req.ID + "|in", nil
	}
	if Availability(req, now).Available {
		return req.ID + "|out", nil
	}
	return "", ErrNotAvailable
}

// QRPNG renders the payload as a PNG suitable for on-screen scanning.
func QRPNG(payload string) ([]byte, error) {
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, qrImageSize, qrImageSize)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GatePassPDF renders a printable gate pass with the student's details and
// the embedded QR code.
func GatePassPDF(req *OutingRequest, student StudentInfo, now time.Time) ([]byte, error) {
	payload, err := CurrentQRPayload(req, now)
	if err != nil {
		return nil, err
	}
	qrImage, err := QRPNG(payload)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Gate Pass")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Student: %s", student.Name))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Course: %s %s", student.Course, student.Branch))
	pdf.Ln(7)
	switch req.Type {
	case TypeLeave:
		pdf.Cell(0, 8, fmt.Sprintf("Leave: %s to %s",
			req.Leave.StartDate.In(IST).Format("2006-01-02"),
			req.Leave.EndDate.In(IST).Format("2006-01-02")))
	case TypePermission:
		pdf.Cell(0, 8, fmt.Sprintf("Permission: %s, out %s in %s",
			req.Permission.Date.In(IST).Format("2006-01-02"),
			req.Permission.OutTime, req.Permission.InTime))
	}
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Reason: %s", req.Reason))
	pdf.Ln(12)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("gatepass-qr", opts, bytes.NewReader(qrImage))
	pdf.ImageOptions("gatepass-qr", 75, pdf.GetY(), 60, 60, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
