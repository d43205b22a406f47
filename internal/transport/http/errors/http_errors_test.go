package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteDataEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteData(rr, http.StatusCreated, "created", map[string]int{"id": 7})

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusCreated)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type: %q", ct)
	}

	var payload struct {
		Message string         `json:"message"`
		Data    map[string]int `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Message != "created" || payload.Data["id"] != 7 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestWriteAPIError(t *testing.T) {
	rr := httptest.NewRecorder()
	Write(rr, http.StatusNotFound, APIError{Code: "NOT_FOUND", Message: "missing"})

	var payload map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["code"] != "NOT_FOUND" || payload["message"] != "missing" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}
