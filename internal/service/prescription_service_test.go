package service

import (
	"bytes"
	"testing"
	"time"

	"medibook/internal/domain/entity"
)

func completedAppointment() *entity.Appointment {
	return &entity.Appointment{
		DateTime:  time.Date(2030, 3, 4, 13, 30, 0, 0, time.UTC),
		Status:    entity.AppointmentStatusCompleted,
		Diagnosis: "Tension headache",
		Treatment: "Ibuprofen 600mg every 8 hours",
		Doctor:    entity.Doctor{FirstName: "Gregory", LastName: "House", Specialty: "Diagnostics"},
		Patient:   entity.Patient{FirstName: "Alfredo", LastName: "Garcia", Email: "alfredo@email.com"},
	}
}

func TestPrescriptionLayout(t *testing.T) {
	svc := NewPrescriptionService("MediBook - Private Clinic", time.UTC, false)

	got := svc.Layout(completedAppointment())
	want := []string{
		"MediBook - Private Clinic",
		"Dr. Gregory House",
		"Specialty: Diagnostics",
		"Patient: Alfredo Garcia",
		"Email: alfredo@email.com",
		"Date: 04/03/2030 13:30",
		"Diagnosis",
		"Tension headache",
		"Treatment / Rx",
		"Ibuprofen 600mg every 8 hours",
		"Signature and Stamp",
	}

	if len(got) != len(want) {
		t.Fatalf("layout has %d lines, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPrescriptionLayoutUsesClinicLocationAndNA(t *testing.T) {
	loc := time.FixedZone("ART", -3*3600)
	svc := NewPrescriptionService("Clinic", loc, false)

	appt := completedAppointment()
	appt.Diagnosis = "   "
	appt.Treatment = ""

	lines := svc.Layout(appt)
	if lines[5] != "Date: 04/03/2030 10:30" {
		t.Errorf("date line = %q", lines[5])
	}
	if lines[7] != "N/A" || lines[9] != "N/A" {
		t.Errorf("missing sections = %q / %q, want N/A", lines[7], lines[9])
	}
}

func TestPrescriptionGenerateProducesPDF(t *testing.T) {
	svc := NewPrescriptionService("MediBook - Private Clinic", time.UTC, false)

	out, err := svc.Generate(completedAppointment())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out[:16])
	}
	for _, text := range []string{"Dr. Gregory House", "Specialty: Diagnostics", "Signature and Stamp", "Tension headache"} {
		if !bytes.Contains(out, []byte(text)) {
			t.Errorf("pdf missing %q", text)
		}
	}
}

func TestPrescriptionGenerateCompressed(t *testing.T) {
	svc := NewPrescriptionService("Clinic", time.UTC, true)

	out, err := svc.Generate(completedAppointment())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}
	if bytes.Contains(out, []byte("Dr. Gregory House")) {
		t.Error("compressed stream should not contain plain text")
	}
}
