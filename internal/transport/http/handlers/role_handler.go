package handlers

import (
	"net/http"

	rolesvc "github.com/ivankudzin/dochub/internal/services/roles"
	"github.com/ivankudzin/dochub/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/dochub/internal/transport/http/errors"
)

type RoleHandler struct {
	service *rolesvc.Service
}

func NewRoleHandler(service *rolesvc.Service) *RoleHandler {
	return &RoleHandler{service: service}
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "ROLE_SERVICE_UNAVAILABLE", "role service is unavailable")
		return
	}

	roles, err := h.service.List(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	out := make([]dto.Role, 0, len(roles))
	for _, role := range roles {
		out = append(out, dto.Role{ID: int(role.ID), Name: role.Name, Description: role.Description})
	}
	httperrors.WriteData(w, http.StatusOK, "roles", out)
}
