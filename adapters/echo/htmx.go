package hxmountecho

import (
	"encoding/json"

	"github.com/labstack/echo/v4"
)

// StateEvent is the client event announced after a state write. Its detail
// holds the state key and the merged status.
const StateEvent = "hxmount:state"

// IsHTMX returns true if the request originated from htmx.
//
// htmx sends HX-Request: true on all requests.
func IsHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

// IsBoosted returns true if the request is a boosted navigation (hx-boost).
func IsBoosted(c echo.Context) bool {
	return c.Request().Header.Get("HX-Boosted") == "true"
}

// TriggerID returns the id attribute of the element that triggered the
// request, empty when the header is absent.
func TriggerID(c echo.Context) string {
	return c.Request().Header.Get("HX-Trigger")
}

// TargetID returns the id attribute of the hx-target element.
func TargetID(c echo.Context) string {
	return c.Request().Header.Get("HX-Target")
}

// BuildTriggerHeader builds an HX-Trigger header value.
//
//	BuildTriggerHeader("saved", nil)              // saved
//	BuildTriggerHeader("saved", {"key": "c1"})    // {"saved":{"key":"c1"}}
//
// htmx fires the event on the triggering element with evt.detail set to
// detail, where a component listening for it can pick it up.
func BuildTriggerHeader(event string, detail map[string]any) string {
	if event == "" {
		return ""
	}
	if detail == nil {
		return event
	}
	data, err := json.Marshal(map[string]any{event: detail})
	if err != nil {
		return event
	}
	return string(data)
}
