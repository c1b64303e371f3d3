package handler

import (
	"net/http"

	"shopcore/internal/apierror"
	"shopcore/internal/dto"
	"shopcore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CategoryHandler struct {
	svc service.CategoryService
}

func NewCategoryHandler(svc service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// Create godoc
// @Summary     Create a category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       request body dto.CreateCategoryRequest true "Category"
// @Success     201 {object} dto.CategoryResponse
// @Router      /v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update godoc
// @Summary     Update a category (parent reassignment included)
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {object} dto.CategoryResponse
// @Router      /v1/categories/{id} [patch]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.UpdateCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary     Soft-delete a category and its descendants
// @Tags        categories
// @Param       id path string true "Category ID"
// @Success     204
// @Router      /v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.SoftDelete(c.Request.Context(), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Restore godoc
// @Summary     Restore a soft-deleted category (the target only)
// @Tags        categories
// @Param       id path string true "Category ID"
// @Success     204
// @Router      /v1/categories/{id}/restore [post]
func (h *CategoryHandler) Restore(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.Restore(c.Request.Context(), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListRoots godoc
// @Summary     List root categories
// @Tags        categories
// @Produce     json
// @Param       active query bool false "Only active categories"
// @Success     200 {array} dto.CategoryResponse
// @Router      /v1/categories [get]
func (h *CategoryHandler) ListRoots(c *gin.Context) {
	list, err := h.svc.ListRoots(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Children godoc
// @Summary     List direct children of a category
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {array} dto.CategoryResponse
// @Router      /v1/categories/{id}/children [get]
func (h *CategoryHandler) Children(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	list, err := h.svc.ListChildren(c.Request.Context(), id, c.Query("active") == "true")
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Ancestors godoc
// @Summary     List ancestors from immediate parent up to the root
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {array} dto.CategoryResponse
// @Router      /v1/categories/{id}/ancestors [get]
func (h *CategoryHandler) Ancestors(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	list, err := h.svc.GetAncestors(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ancestors": list, "depth": len(list)})
}

// Descendants godoc
// @Summary     List the full subtree below a category
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID"
// @Param       include_deleted query bool false "Include soft-deleted nodes"
// @Success     200 {array} dto.CategoryResponse
// @Router      /v1/categories/{id}/descendants [get]
func (h *CategoryHandler) Descendants(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	list, err := h.svc.GetAllDescendants(c.Request.Context(), id, c.Query("include_deleted") == "true")
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
