package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, "created", map[string]string{"id": "1"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var body struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Message != "created" || body.Data["id"] != "1" {
		t.Errorf("body = %+v", body)
	}
}

func TestErrorHelpersDefaultMessages(t *testing.T) {
	tests := []struct {
		write  func(http.ResponseWriter)
		status int
		msg    string
	}{
		{func(w http.ResponseWriter) { NotFound(w, "") }, http.StatusNotFound, "Resource not found"},
		{func(w http.ResponseWriter) { Conflict(w, "") }, http.StatusConflict, "Conflict"},
		{func(w http.ResponseWriter) { BadRequest(w, "bad date") }, http.StatusBadRequest, "bad date"},
		{func(w http.ResponseWriter) { Forbidden(w, "") }, http.StatusForbidden, "Forbidden"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		tt.write(rec)

		var body Response
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec.Code != tt.status || body.Success || body.Message != tt.msg {
			t.Errorf("got %d %+v, want %d %q", rec.Code, body, tt.status, tt.msg)
		}
	}
}

func TestAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	Attachment(rec, "application/pdf", "prescription_1.pdf", []byte("%PDF-1.3"))

	if rec.Header().Get("Content-Disposition") != `attachment; filename="prescription_1.pdf"` {
		t.Errorf("disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if rec.Header().Get("Content-Length") != "8" || rec.Body.String() != "%PDF-1.3" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
