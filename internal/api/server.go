package api

import (
	"fmt"
	"net/http"

	"github.com/quillcraft/inkwell/internal/logging"
)

// Start runs the HTTP server on the given port, wrapping the routes in the
// request-id and logging middleware. Blocks until the listener fails.
func (s *Service) Start(port int) error {
	handler := logging.Middleware(s.Routes())
	logging.ServerStartup("editing_engine", "http", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), handler)
}
