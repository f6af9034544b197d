package service

import (
	"bytes"
	"fmt"
	"time"

	"medibook/internal/domain/entity"

	"github.com/go-pdf/fpdf"
)

const (
	prescriptionDateLayout = "02/01/2006 15:04"
	notAvailable           = "N/A"
)

type lineKind int

const (
	kindTitle lineKind = iota
	kindHeading
	kindText
	kindSection
	kindBody
	kindSeparator
	kindSignature
)

type prescriptionLine struct {
	kind lineKind
	text string
}

// PrescriptionService renders the one-page prescription handed to the patient after a visit.
type PrescriptionService struct {
	clinicName string
	loc        *time.Location
	compress   bool
}

func NewPrescriptionService(clinicName string, loc *time.Location, compress bool) *PrescriptionService {
	if loc == nil {
		loc = time.UTC
	}
	return &PrescriptionService{clinicName: clinicName, loc: loc, compress: compress}
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func (s *PrescriptionService) lines(appt *entity.Appointment) []prescriptionLine {
	diagnosis, treatment := "", ""
	if appt.HasDiagnosis() {
		diagnosis = appt.Diagnosis
	}
	if appt.HasTreatment() {
		treatment = appt.Treatment
	}

	return []prescriptionLine{
		{kindTitle, s.clinicName},
		{kindHeading, "Dr. " + appt.Doctor.FullName()},
		{kindText, "Specialty: " + appt.Doctor.Specialty},
		{kindSeparator, ""},
		{kindText, "Patient: " + appt.Patient.FullName()},
		{kindText, "Email: " + appt.Patient.Email},
		{kindText, "Date: " + appt.DateTime.In(s.loc).Format(prescriptionDateLayout)},
		{kindSection, "Diagnosis"},
		{kindBody, orNA(diagnosis)},
		{kindSection, "Treatment / Rx"},
		{kindBody, orNA(treatment)},
		{kindSignature, "Signature and Stamp"},
	}
}

// Layout returns the text of the document in render order.
func (s *PrescriptionService) Layout(appt *entity.Appointment) []string {
	var out []string
	for _, l := range s.lines(appt) {
		if l.kind != kindSeparator {
			out = append(out, l.text)
		}
	}
	return out
}

// Generate renders a single A4 page for appt. The caller checks that the visit is completed.
func (s *PrescriptionService) Generate(appt *entity.Appointment) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(s.compress)
	pdf.SetTitle("Prescription", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 20)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	width := pageW - left - right

	for _, l := range s.lines(appt) {
		switch l.kind {
		case kindTitle:
			pdf.SetFont("Helvetica", "B", 20)
			pdf.CellFormat(width, 12, tr(l.text), "", 1, "C", false, 0, "")
			pdf.Ln(6)
		case kindHeading:
			pdf.SetFont("Helvetica", "B", 14)
			pdf.CellFormat(width, 8, tr(l.text), "", 1, "L", false, 0, "")
		case kindText:
			pdf.SetFont("Helvetica", "", 12)
			pdf.CellFormat(width, 7, tr(l.text), "", 1, "L", false, 0, "")
		case kindSeparator:
			pdf.Ln(3)
			y := pdf.GetY()
			pdf.Line(left, y, pageW-right, y)
			pdf.Ln(5)
		case kindSection:
			pdf.Ln(6)
			pdf.SetFont("Helvetica", "B", 13)
			pdf.CellFormat(width, 8, tr(l.text), "", 1, "L", false, 0, "")
		case kindBody:
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(width, 6, tr(l.text), "", "L", false)
		case kindSignature:
			sigY := pageH - 50
			sigW := 70.0
			sigX := pageW - right - sigW
			pdf.Line(sigX, sigY, sigX+sigW, sigY)
			pdf.SetXY(sigX, sigY+2)
			pdf.SetFont("Helvetica", "I", 10)
			pdf.CellFormat(sigW, 6, tr(l.text), "", 1, "C", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render prescription: %w", err)
	}
	return buf.Bytes(), nil
}
