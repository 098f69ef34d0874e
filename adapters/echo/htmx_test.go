package hxmountecho

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/pthm/hxmount"
)

func TestBuildTriggerHeader(t *testing.T) {
	tests := []struct {
		name   string
		event  string
		detail map[string]any
		want   string
	}{
		{name: "empty", event: "", want: ""},
		{name: "simple", event: "saved", want: "saved"},
		{name: "with detail", event: "saved", detail: map[string]any{"key": "c1"}, want: `{"saved":{"key":"c1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildTriggerHeader(tt.event, tt.detail); got != tt.want {
				t.Errorf("BuildTriggerHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestHeaders(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Boosted", "true")
	req.Header.Set("HX-Trigger", "save-btn")
	req.Header.Set("HX-Target", "card-1")
	c := e.NewContext(req, httptest.NewRecorder())

	if !IsHTMX(c) || !IsBoosted(c) {
		t.Error("htmx headers not detected")
	}
	if TriggerID(c) != "save-btn" || TargetID(c) != "card-1" {
		t.Errorf("TriggerID=%q TargetID=%q", TriggerID(c), TargetID(c))
	}

	plain := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if IsHTMX(plain) || IsBoosted(plain) || TriggerID(plain) != "" {
		t.Error("plain request reported htmx headers")
	}
}

func TestStateWriteAnnouncesEvent(t *testing.T) {
	e := echo.New()
	Mount(e, WithRegistry(hxmount.NewRegistry()))

	req := httptest.NewRequest(http.MethodPost, "/_hx/state/card-1", strings.NewReader(`{"status":"error"}`))
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := `{"hxmount:state":{"key":"card-1","status":"error"}}`
	if got := rec.Header().Get("HX-Trigger"); got != want {
		t.Errorf("HX-Trigger = %q, want %q", got, want)
	}
}
