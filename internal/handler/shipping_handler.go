package handler

import (
	"errors"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ShippingHandler struct {
	shippingService service.ShippingService
	calcService     service.ShippingCalculationService
}

func NewShippingHandler(shippingService service.ShippingService, calcService service.ShippingCalculationService) *ShippingHandler {
	return &ShippingHandler{shippingService: shippingService, calcService: calcService}
}

func (h *ShippingHandler) RegisterRoutes(router *gin.RouterGroup) {
	shipping := router.Group("/api/shipping")
	{
		shipping.POST("/calculate", middleware.RequireRole("admin", "manager", "staff"), h.Calculate)

		shipping.GET("/zones", middleware.RequirePermission("shipping.read"), h.ListZones)
		shipping.GET("/zones/:id", middleware.RequirePermission("shipping.read"), h.GetZone)
		shipping.POST("/zones", middleware.RequirePermission("shipping.write"), h.CreateZone)
		shipping.PUT("/zones/:id", middleware.RequirePermission("shipping.write"), h.UpdateZone)
		shipping.DELETE("/zones/:id", middleware.RequirePermission("shipping.write"), h.DeleteZone)

		shipping.GET("/methods", middleware.RequirePermission("shipping.read"), h.ListMethods)
		shipping.GET("/methods/:id", middleware.RequirePermission("shipping.read"), h.GetMethod)
		shipping.POST("/methods", middleware.RequirePermission("shipping.write"), h.CreateMethod)
		shipping.PUT("/methods/:id", middleware.RequirePermission("shipping.write"), h.UpdateMethod)
		shipping.DELETE("/methods/:id", middleware.RequirePermission("shipping.write"), h.DeleteMethod)

		shipping.GET("/rates", middleware.RequirePermission("shipping.read"), h.ListRates)
		shipping.POST("/rates", middleware.RequirePermission("shipping.write"), h.CreateRate)
		shipping.PUT("/rates/:id", middleware.RequirePermission("shipping.write"), h.UpdateRate)
		shipping.DELETE("/rates/:id", middleware.RequirePermission("shipping.write"), h.DeleteRate)
	}
}

// Calculate returns the available shipping options for a destination and cart
// @Summary      Calculate shipping options
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CalculateShippingRequest  true  "Destination and cart"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/shipping/calculate [post]
func (h *ShippingHandler) Calculate(c *gin.Context) {
	var req service.CalculateShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.calcService.Calculate(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrNoShippingZone) {
			status = http.StatusBadRequest
		}
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// --- Zones ---

// ListZones returns paginated shipping zones
// @Summary      List shipping zones
// @Tags         shipping
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default: 1)"
// @Param        limit  query  int  false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response
// @Router       /api/shipping/zones [get]
func (h *ShippingHandler) ListZones(c *gin.Context) {
	page, limit := paginationParams(c)
	zones, total, err := h.shippingService.ListZones(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, zones, page, limit, total))
}

// GetZone returns one zone
// @Summary      Get shipping zone
// @Tags         shipping
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Zone ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/shipping/zones/{id} [get]
func (h *ShippingHandler) GetZone(c *gin.Context) {
	zone, err := h.shippingService.GetZone(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, zone))
}

// CreateZone creates a shipping zone
// @Summary      Create shipping zone
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateShippingZoneRequest  true  "Zone payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/shipping/zones [post]
func (h *ShippingHandler) CreateZone(c *gin.Context) {
	var req service.CreateShippingZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	zone, err := h.shippingService.CreateZone(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, zone))
}

// UpdateZone updates a shipping zone
// @Summary      Update shipping zone
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                             true  "Zone ID"
// @Param        payload  body  service.UpdateShippingZoneRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/shipping/zones/{id} [put]
func (h *ShippingHandler) UpdateZone(c *gin.Context) {
	var req service.UpdateShippingZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	zone, err := h.shippingService.UpdateZone(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, zone))
}

// DeleteZone deletes a shipping zone (soft delete)
// @Summary      Delete shipping zone
// @Tags         shipping
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Zone ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/shipping/zones/{id} [delete]
func (h *ShippingHandler) DeleteZone(c *gin.Context) {
	if err := h.shippingService.DeleteZone(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Shipping zone deleted successfully"}))
}

// --- Methods ---

// ListMethods returns paginated shipping methods
// @Summary      List shipping methods
// @Tags         shipping
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default: 1)"
// @Param        limit  query  int  false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response
// @Router       /api/shipping/methods [get]
func (h *ShippingHandler) ListMethods(c *gin.Context) {
	page, limit := paginationParams(c)
	methods, total, err := h.shippingService.ListMethods(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, methods, page, limit, total))
}

// GetMethod returns one method
// @Summary      Get shipping method
// @Tags         shipping
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Method ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/shipping/methods/{id} [get]
func (h *ShippingHandler) GetMethod(c *gin.Context) {
	method, err := h.shippingService.GetMethod(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, method))
}

// CreateMethod creates a shipping method
// @Summary      Create shipping method
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateShippingMethodRequest  true  "Method payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/shipping/methods [post]
func (h *ShippingHandler) CreateMethod(c *gin.Context) {
	var req service.CreateShippingMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	method, err := h.shippingService.CreateMethod(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, method))
}

// UpdateMethod updates a shipping method
// @Summary      Update shipping method
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                               true  "Method ID"
// @Param        payload  body  service.UpdateShippingMethodRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/shipping/methods/{id} [put]
func (h *ShippingHandler) UpdateMethod(c *gin.Context) {
	var req service.UpdateShippingMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	method, err := h.shippingService.UpdateMethod(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, method))
}

// DeleteMethod deletes a shipping method (soft delete)
// @Summary      Delete shipping method
// @Tags         shipping
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Method ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/shipping/methods/{id} [delete]
func (h *ShippingHandler) DeleteMethod(c *gin.Context) {
	if err := h.shippingService.DeleteMethod(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Shipping method deleted successfully"}))
}

// --- Rates ---

// ListRates returns paginated method+zone rate rows
// @Summary      List shipping rates
// @Tags         shipping
// @Security     BearerAuth
// @Produce      json
// @Param        page     query  int     false  "Page number (default: 1)"
// @Param        limit    query  int     false  "Items per page (default: 20)"
// @Param        zone_id  query  string  false  "Filter by zone"
// @Success      200  {object}  response.Response
// @Router       /api/shipping/rates [get]
func (h *ShippingHandler) ListRates(c *gin.Context) {
	page, limit := paginationParams(c)
	rates, total, err := h.shippingService.ListRates(c.Request.Context(), c.Query("zone_id"), page, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, rates, page, limit, total))
}

// CreateRate creates a method+zone rate row
// @Summary      Create shipping rate
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateShippingRateRequest  true  "Rate payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/shipping/rates [post]
func (h *ShippingHandler) CreateRate(c *gin.Context) {
	var req service.CreateShippingRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.shippingService.CreateRate(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rate))
}

// UpdateRate updates a rate row
// @Summary      Update shipping rate
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                             true  "Rate ID"
// @Param        payload  body  service.UpdateShippingRateRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/shipping/rates/{id} [put]
func (h *ShippingHandler) UpdateRate(c *gin.Context) {
	var req service.UpdateShippingRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.shippingService.UpdateRate(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}

// DeleteRate deletes a rate row
// @Summary      Delete shipping rate
// @Tags         shipping
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Rate ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/shipping/rates/{id} [delete]
func (h *ShippingHandler) DeleteRate(c *gin.Context) {
	if err := h.shippingService.DeleteRate(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Shipping rate deleted successfully"}))
}
