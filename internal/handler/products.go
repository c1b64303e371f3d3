package handler

import (
	"net/http"

	"shopcore/internal/dto"
	"shopcore/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	svc service.ProductService
}

func NewProductHandler(svc service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// Create godoc
// @Summary     Create a product
// @Tags        products
// @Accept      json
// @Produce     json
// @Param       request body dto.CreateProductRequest true "Product"
// @Success     201 {object} dto.ProductResponse
// @Router      /v1/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
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

// Get godoc
// @Summary     Get a product by id
// @Tags        products
// @Produce     json
// @Param       id path string true "Product ID"
// @Success     200 {object} dto.ProductResponse
// @Router      /v1/products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary     List products
// @Tags        products
// @Produce     json
// @Param       active query bool false "Only active products"
// @Success     200 {array} dto.ProductResponse
// @Router      /v1/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Update godoc
// @Summary     Update a product
// @Tags        products
// @Accept      json
// @Produce     json
// @Param       id path string true "Product ID"
// @Success     200 {object} dto.ProductResponse
// @Router      /v1/products/{id} [patch]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
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
// @Summary     Soft-delete a product
// @Tags        products
// @Param       id path string true "Product ID"
// @Success     204
// @Router      /v1/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
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

// AdjustStock godoc
// @Summary     Adjust stock by a signed delta
// @Tags        products
// @Accept      json
// @Produce     json
// @Param       id path string true "Product ID"
// @Param       request body dto.AdjustStockRequest true "Delta"
// @Success     200 {object} dto.ProductResponse
// @Failure     409 {object} apierror.APIError "Not enough stock"
// @Router      /v1/products/{id}/stock [post]
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var err error
	if req.Delta < 0 {
		err = h.svc.DecreaseStock(c.Request.Context(), id, -req.Delta)
	} else {
		err = h.svc.IncreaseStock(c.Request.Context(), id, req.Delta)
	}
	if err != nil {
		writeDomainError(c, err)
		return
	}

	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
