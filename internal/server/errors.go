package server

import (
	"net/http"

	"github.com/viaantech/resume-ranking/internal/store"
)

// HTTPStatus maps a storage error onto the appropriate response code.
func HTTPStatus(err error) int {
	switch {
	case store.IsNotFound(err):
		return http.StatusNotFound
	case store.IsDuplicateChild(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
