package handler

import (
	"net/http"
	"strconv"

	"shopcore/internal/dto"
	"shopcore/internal/model"
	"shopcore/internal/service"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	svc service.OrderService
}

func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Create godoc
// @Summary     Place an order
// @Tags        orders
// @Accept      json
// @Produce     json
// @Param       request body dto.CreateOrderRequest true "Order"
// @Success     201 {object} dto.OrderResponse
// @Failure     409 {object} apierror.APIError "Not enough stock"
// @Router      /v1/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
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
// @Summary     Get an order with its status timeline
// @Tags        orders
// @Produce     json
// @Param       id path string true "Order ID"
// @Success     200 {object} dto.OrderResponse
// @Router      /v1/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
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
// @Summary     List recent orders
// @Tags        orders
// @Produce     json
// @Param       limit query int false "Max rows (default 100)"
// @Success     200 {array} dto.OrderResponse
// @Router      /v1/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	list, err := h.svc.List(c.Request.Context(), limit)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// SetStatus godoc
// @Summary     Transition an order to a new status
// @Tags        orders
// @Accept      json
// @Produce     json
// @Param       id path string true "Order ID"
// @Param       request body dto.SetOrderStatusRequest true "Target status"
// @Success     200 {object} dto.OrderResponse
// @Failure     400 {object} apierror.APIError "Forbidden transition"
// @Router      /v1/orders/{id}/status [post]
func (h *OrderHandler) SetStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.SetOrderStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetStatus(c.Request.Context(), id, model.OrderStatus(req.Status), req.Notes)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
