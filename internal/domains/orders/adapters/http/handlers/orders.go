package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/order-saga/internal/domains/orders/adapters/http/mapper"
	"github.com/Apurer/order-saga/internal/domains/orders/application"
	"github.com/Apurer/order-saga/internal/domains/orders/ports"
	apierrors "github.com/Apurer/order-saga/internal/shared/errors"
)

// OrderAPI wires HTTP transport to the orders service.
type OrderAPI struct {
	service   ports.Service
	responder *apierrors.ChainedResponder
}

func NewOrderAPI(service ports.Service) *OrderAPI {
	return &OrderAPI{
		service:   service,
		responder: apierrors.NewChainedResponder("", mapOrderError),
	}
}

// Register mounts the order routes on r.
func (api *OrderAPI) Register(r gin.IRouter) {
	r.POST("/orders", api.CreateOrder)
	r.GET("/orders", api.GetOrders)
	r.GET("/orders/:id", api.GetOrderByID)
}

// Post /orders
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload mapper.CreateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	order, err := api.service.CreateOrder(c.Request.Context(), mapper.ToCommand(payload))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Header("Location", "/orders/"+order.ID)
	c.JSON(http.StatusCreated, mapper.FromDomainOrder(order))
}

// Get /orders
func (api *OrderAPI) GetOrders(c *gin.Context) {
	orders, err := api.service.GetOrders(c.Request.Context())
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainOrders(orders))
}

// Get /orders/:id
func (api *OrderAPI) GetOrderByID(c *gin.Context) {
	id := c.Param("id")
	order, err := api.service.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	if order == nil {
		api.responder.NotFound(c, "order", id)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainOrder(order))
}

func mapOrderError(err error) (apierrors.ProblemDetail, bool) {
	var notFound *application.ProductNotFoundError
	switch {
	case errors.As(err, &notFound):
		return apierrors.NewValidationProblem(notFound.Error()).
			WithExtension("productId", notFound.ProductID), true
	case errors.Is(err, application.ErrInvalidInput):
		return apierrors.NewValidationProblem(err.Error()), true
	case errors.Is(err, application.ErrPublishFailed):
		return apierrors.ErrUpstream.WithDetail(err.Error()), true
	default:
		return apierrors.ProblemDetail{}, false
	}
}
