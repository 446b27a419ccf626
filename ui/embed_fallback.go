//go:build !ui_embed

// Package ui serves the control panel frontend. Without the ui_embed build
// tag the panel is not bundled and the root redirects to the API docs.
package ui

import (
	"net/http"
)

// Handler redirects every request to the API docs.
func Handler() (http.Handler, error) {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs", http.StatusFound)
	}), nil
}
