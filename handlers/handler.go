// Package handlers binds HTTP requests to the services and renders their
// results as JSON.
package handlers

import (
	"net/http"
	"strconv"

	"campus-eats-api/apperr"
	"campus-eats-api/middleware"
	"campus-eats-api/models"
	"campus-eats-api/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc    *services.Services
	tokens *middleware.TokenIssuer
	log    *logrus.Logger
}

func New(svc *services.Services, tokens *middleware.TokenIssuer, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, tokens: tokens, log: log}
}

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		return models.OrderStatus(fl.Field().String()).Valid()
	})
}

// respondError writes err with the status its kind maps to. Internal
// failures are logged and their cause is not exposed.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func actor(c *gin.Context) services.Actor {
	return services.Actor{UserID: middleware.GetUserID(c), Role: middleware.GetRole(c)}
}

// paramID parses a positive numeric path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func queryBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}
