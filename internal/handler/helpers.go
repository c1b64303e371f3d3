package handler

import (
	"errors"
	"net/http"
	"reflect"

	"shopcore/internal/apierror"
	"shopcore/internal/domerr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Teach the validator to treat decimal.Decimal as a number so tags
	// like min=0 and max work on price fields.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate decodes the JSON body into req and runs its validator
// tags. On failure it writes the error response and returns false; the
// caller must return without writing anything else.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeDomainError translates core errors to protocol responses. Nothing
// is retried here; retries belong to the caller.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domerr.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New("Not found"))
	case errors.Is(err, domerr.ErrInsufficientStock):
		c.JSON(http.StatusConflict, apierror.New("Not enough stock"))
	case errors.Is(err, domerr.ErrReferenceProtected):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, domerr.ErrCircularReference):
		c.JSON(http.StatusBadRequest, apierror.New("Cannot create circular category reference"))
	case domerr.IsValidation(err):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Internal server error"))
	}
}
