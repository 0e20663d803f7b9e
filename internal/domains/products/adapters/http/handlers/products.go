package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/order-saga/internal/domains/products/adapters/http/mapper"
	"github.com/Apurer/order-saga/internal/domains/products/application"
	"github.com/Apurer/order-saga/internal/domains/products/ports"
	apierrors "github.com/Apurer/order-saga/internal/shared/errors"
)

// ProductAPI wires HTTP transport to the product catalog.
type ProductAPI struct {
	service   ports.Service
	responder *apierrors.ChainedResponder
}

func NewProductAPI(service ports.Service) *ProductAPI {
	return &ProductAPI{
		service:   service,
		responder: apierrors.NewChainedResponder("", mapProductError),
	}
}

func (api *ProductAPI) Register(r gin.IRouter) {
	r.POST("/products", api.CreateProduct)
	r.GET("/products", api.ListProducts)
	r.GET("/products/:id", api.GetProduct)
}

// Post /products
func (api *ProductAPI) CreateProduct(c *gin.Context) {
	var payload mapper.CreateProductRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	product, err := api.service.CreateProduct(c.Request.Context(), mapper.ToCommand(payload))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Header("Location", "/products/"+product.ID)
	c.JSON(http.StatusCreated, mapper.FromDomainProduct(product))
}

// Get /products
func (api *ProductAPI) ListProducts(c *gin.Context) {
	products, err := api.service.ListProducts(c.Request.Context())
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainProducts(products))
}

// Get /products/:id
func (api *ProductAPI) GetProduct(c *gin.Context) {
	id := c.Param("id")
	product, err := api.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			api.responder.NotFound(c, "product", id)
			return
		}
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainProduct(product))
}

func mapProductError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		return apierrors.NewValidationProblem(err.Error()), true
	case errors.Is(err, ports.ErrDuplicateName):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	default:
		return apierrors.ProblemDetail{}, false
	}
}
