package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxHandler struct {
	rateService service.TaxRateService
	calcService service.TaxCalculationService
}

func NewTaxHandler(rateService service.TaxRateService, calcService service.TaxCalculationService) *TaxHandler {
	return &TaxHandler{rateService: rateService, calcService: calcService}
}

func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	tax := router.Group("/api/tax")
	{
		// Calculation is open to any authenticated role; checkout flows call it
		tax.POST("/calculate", middleware.RequireRole("admin", "manager", "staff"), h.Calculate)

		tax.GET("/rates", middleware.RequirePermission("tax.read"), h.ListRates)
		tax.GET("/rates/:id", middleware.RequirePermission("tax.read"), h.GetRate)
		tax.POST("/rates", middleware.RequirePermission("tax.write"), h.CreateRate)
		tax.PUT("/rates/:id", middleware.RequirePermission("tax.write"), h.UpdateRate)
		tax.DELETE("/rates/:id", middleware.RequirePermission("tax.write"), h.DeleteRate)

		tax.GET("/categories", middleware.RequirePermission("tax.read"), h.ListCategories)
		tax.POST("/categories", middleware.RequirePermission("tax.write"), h.CreateCategory)
		tax.PUT("/categories/:id", middleware.RequirePermission("tax.write"), h.UpdateCategory)
		tax.DELETE("/categories/:id", middleware.RequirePermission("tax.write"), h.DeleteCategory)
	}
}

// Calculate computes tax for an order snapshot
// @Summary      Calculate tax
// @Tags         tax
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CalculateTaxRequest  true  "Order snapshot"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/calculate [post]
func (h *TaxHandler) Calculate(c *gin.Context) {
	var req service.CalculateTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.calcService.Calculate(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListRates returns paginated tax rates, optionally filtered by country
// @Summary      List tax rates
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Param        page     query  int     false  "Page number (default: 1)"
// @Param        limit    query  int     false  "Items per page (default: 20)"
// @Param        country  query  string  false  "ISO country filter"
// @Success      200  {object}  response.Response
// @Router       /api/tax/rates [get]
func (h *TaxHandler) ListRates(c *gin.Context) {
	page, limit := paginationParams(c)
	rates, total, err := h.rateService.ListRates(c.Request.Context(), c.Query("country"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, rates, page, limit, total))
}

// GetRate returns a single tax rate
// @Summary      Get tax rate
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Tax rate ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/rates/{id} [get]
func (h *TaxHandler) GetRate(c *gin.Context) {
	rate, err := h.rateService.GetRate(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}

// CreateRate creates a tax rate
// @Summary      Create tax rate
// @Tags         tax
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateTaxRateRequest  true  "Tax rate payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/rates [post]
func (h *TaxHandler) CreateRate(c *gin.Context) {
	var req service.CreateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.rateService.CreateRate(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rate))
}

// UpdateRate updates a tax rate
// @Summary      Update tax rate
// @Tags         tax
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Tax rate ID"
// @Param        payload  body  service.UpdateTaxRateRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/rates/{id} [put]
func (h *TaxHandler) UpdateRate(c *gin.Context) {
	var req service.UpdateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.rateService.UpdateRate(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}

// DeleteRate deletes a tax rate (soft delete)
// @Summary      Delete tax rate
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Tax rate ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/rates/{id} [delete]
func (h *TaxHandler) DeleteRate(c *gin.Context) {
	if err := h.rateService.DeleteRate(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Tax rate deleted successfully"}))
}

// ListCategories returns every tax category
// @Summary      List tax categories
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/tax/categories [get]
func (h *TaxHandler) ListCategories(c *gin.Context) {
	categories, err := h.rateService.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// CreateCategory creates a tax category
// @Summary      Create tax category
// @Tags         tax
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateTaxCategoryRequest  true  "Category payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/categories [post]
func (h *TaxHandler) CreateCategory(c *gin.Context) {
	var req service.CreateTaxCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.rateService.CreateCategory(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

// UpdateCategory updates a tax category
// @Summary      Update tax category
// @Tags         tax
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                            true  "Category ID"
// @Param        payload  body  service.UpdateTaxCategoryRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/categories/{id} [put]
func (h *TaxHandler) UpdateCategory(c *gin.Context) {
	var req service.UpdateTaxCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.rateService.UpdateCategory(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// DeleteCategory deletes a tax category
// @Summary      Delete tax category
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/categories/{id} [delete]
func (h *TaxHandler) DeleteCategory(c *gin.Context) {
	if err := h.rateService.DeleteCategory(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Tax category deleted successfully"}))
}

// --- Shared helpers ---

func currentUserID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	return userIDStr
}

func paginationParams(c *gin.Context) (int, int) {
	params := pagination.Parse(c)
	return params.Page, params.Limit
}
