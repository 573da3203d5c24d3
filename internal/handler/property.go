package handler

import (
	"net/http"

	"github.com/rentdesk/rentdesk/internal/httputil"
	"github.com/rentdesk/rentdesk/internal/service"
)

type propertyHandler struct {
	propertyService *service.PropertyService
}

func NewPropertyHandler(propertyService *service.PropertyService) *propertyHandler {
	return &propertyHandler{
		propertyService: propertyService,
	}
}

// List returns the properties the caller is approved for
// GET /api/properties
func (h *propertyHandler) List(w http.ResponseWriter, r *http.Request) {
	properties, err := h.propertyService.Properties(r.Context(), tokenCredentials(r))
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"properties": properties})
}

// Get
// GET /api/properties/{id}
func (h *propertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		badRequest(w, err.Error(), nil)
		return
	}

	property, err := h.propertyService.Property(r.Context(), tokenCredentials(r), id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"property": property})
}

// Create
// POST /api/properties
func (h *propertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePropertyRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body", err)
		return
	}
	withToken(r, &req.Credentials)

	property, err := h.propertyService.Create(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]any{
		"message":  "property created",
		"property": property,
	})
}
