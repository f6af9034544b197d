package validator

import (
	"testing"
)

type sample struct {
	Email     string `json:"email" validate:"required,email"`
	WorkStart string `json:"work_start" validate:"omitempty,timeofday"`
	BirthDate string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Name      string `validate:"max=3"`
}

func TestValidatorReportsJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&sample{Email: "nope", WorkStart: "25:00", BirthDate: "12/04/1985", Name: "toolong"})
	if err == nil {
		t.Fatal("expected validation errors")
	}

	got := v.FormatValidationErrors(err)
	want := map[string]string{
		"email":      "email must be a valid email address",
		"work_start": "work_start must be a time in HH:MM format",
		"birth_date": "birth_date must match 2006-01-02",
		"Name":       "Name must be at most 3",
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Errorf("%s = %q, want %q", field, got[field], msg)
		}
	}
}

func TestValidatorAcceptsValidInput(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(&sample{Email: "a@b.com", WorkStart: "08:30", BirthDate: "1985-04-12", Name: "ok"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.Validate(&sample{Email: "a@b.com"}); err != nil {
		t.Errorf("optional fields: %v", err)
	}
}
