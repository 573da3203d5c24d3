package handler

import (
	"net/http"

	"github.com/rentdesk/rentdesk/internal/httputil"
	"github.com/rentdesk/rentdesk/internal/service"
)

type categoryHandler struct {
	categoryService *service.CategoryService
}

func NewCategoryHandler(categoryService *service.CategoryService) *categoryHandler {
	return &categoryHandler{
		categoryService: categoryService,
	}
}

// Add
// POST /api/categories
func (h *categoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body", err)
		return
	}
	withToken(r, &req.Credentials)

	property, err := h.categoryService.Add(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"message":    "category added",
		"categories": property.Categories,
	})
}

// Delete removes a category and its details
// POST /api/categories/delete
func (h *categoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body", err)
		return
	}
	withToken(r, &req.Credentials)

	property, err := h.categoryService.Delete(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"message":    "category deleted",
		"categories": property.Categories,
	})
}

// Details
// GET /api/properties/{id}/details?category=
func (h *categoryHandler) Details(w http.ResponseWriter, r *http.Request) {
	propertyID, err := httputil.PathID(r, "id")
	if err != nil {
		badRequest(w, err.Error(), nil)
		return
	}

	details, err := h.categoryService.Details(r.Context(), tokenCredentials(r), propertyID, r.URL.Query().Get("category"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"details": details})
}

// AddDetail
// POST /api/details
func (h *categoryHandler) AddDetail(w http.ResponseWriter, r *http.Request) {
	var req service.DetailRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body", err)
		return
	}
	withToken(r, &req.Credentials)

	detail, err := h.categoryService.AddDetail(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]any{
		"message": "detail added",
		"detail":  detail,
	})
}

// UpdateDetail overwrites a detail
// POST /api/details/update
func (h *categoryHandler) UpdateDetail(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateDetailRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body", err)
		return
	}
	withToken(r, &req.Credentials)

	detail, err := h.categoryService.UpdateDetail(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"message": "detail updated",
		"detail":  detail,
	})
}

// DeleteDetail
// POST /api/details/delete
func (h *categoryHandler) DeleteDetail(w http.ResponseWriter, r *http.Request) {
	var req service.DeleteDetailRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body", err)
		return
	}
	withToken(r, &req.Credentials)

	if err := h.categoryService.DeleteDetail(r.Context(), req); err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"message": "detail deleted"})
}
