package handlers

import (
	"net/http"

	"github.com/ivankudzin/dochub/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/dochub/internal/transport/http/errors"
)

const (
	ServiceName    = "dochub-corporate-portal"
	ServiceVersion = "1.0.0"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, dto.HealthResponse{
		Status:  "OK",
		Service: ServiceName,
		Version: ServiceVersion,
	})
}

func (h *HealthHandler) Get(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, map[string]bool{"ok": true})
}
