package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"shopcore/internal/dto"
	"shopcore/internal/service"
	"shopcore/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const priceCacheTTL = 5 * time.Minute

// PriceCheckHandler serves the public price lookup with a Redis
// cache-aside layer. Entries expire on TTL and are purged by the worker
// pool when a product changes.
type PriceCheckHandler struct {
	svc service.ProductService
	rdb *redis.Client
}

func NewPriceCheckHandler(svc service.ProductService, rdb *redis.Client) *PriceCheckHandler {
	return &PriceCheckHandler{svc: svc, rdb: rdb}
}

// Check godoc
// @Summary     Public price lookup by product code
// @Tags        price
// @Produce     json
// @Param       code path string true "Product code"
// @Success     200 {object} dto.PriceCheckResponse
// @Failure     404 {object} apierror.APIError
// @Router      /v1/price/{code} [get]
func (h *PriceCheckHandler) Check(c *gin.Context) {
	code := c.Param("code")
	key := worker.PriceCachePrefix + code
	ctx := c.Request.Context()

	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, key).Result(); err == nil {
			var resp dto.PriceCheckResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				c.Header("X-Cache", "HIT")
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	p, err := h.svc.GetByCode(ctx, code)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	resp := dto.PriceCheckResponse{
		Name:       p.Name,
		Code:       p.Code,
		BasePrice:  p.BasePrice,
		FinalPrice: p.FinalPrice,
		InStock:    p.InStock,
	}

	if h.rdb != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := h.rdb.Set(ctx, key, data, priceCacheTTL).Err(); err != nil {
				log.Debug().Str("code", code).Err(err).Msg("price cache write failed")
			}
		}
	}

	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, resp)
}
