package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxRuleHandler struct {
	ruleService service.TaxRuleService
}

func NewTaxRuleHandler(ruleService service.TaxRuleService) *TaxRuleHandler {
	return &TaxRuleHandler{ruleService: ruleService}
}

func (h *TaxRuleHandler) RegisterRoutes(router *gin.RouterGroup) {
	rules := router.Group("/api/tax/rules")
	{
		rules.GET("", middleware.RequirePermission("tax_rules.read"), h.ListRules)
		rules.GET("/:id", middleware.RequirePermission("tax_rules.read"), h.GetRule)
		rules.POST("", middleware.RequirePermission("tax_rules.write"), h.CreateRule)
		rules.PUT("/:id", middleware.RequirePermission("tax_rules.write"), h.UpdateRule)
		rules.DELETE("/:id", middleware.RequirePermission("tax_rules.write"), h.DeleteRule)
	}
}

// ListRules returns paginated tax rules with conditions and actions
// @Summary      List tax rules
// @Tags         tax-rules
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default: 1)"
// @Param        limit  query  int  false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response
// @Router       /api/tax/rules [get]
func (h *TaxRuleHandler) ListRules(c *gin.Context) {
	page, limit := paginationParams(c)
	rules, total, err := h.ruleService.List(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, rules, page, limit, total))
}

// GetRule returns one rule with its conditions and actions
// @Summary      Get tax rule
// @Tags         tax-rules
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Rule ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/rules/{id} [get]
func (h *TaxRuleHandler) GetRule(c *gin.Context) {
	rule, err := h.ruleService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

// CreateRule creates a tax rule with its conditions and actions
// @Summary      Create tax rule
// @Tags         tax-rules
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateTaxRuleRequest  true  "Rule payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/rules [post]
func (h *TaxRuleHandler) CreateRule(c *gin.Context) {
	var req service.CreateTaxRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.ruleService.Create(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}

// UpdateRule updates a rule; sending conditions or actions replaces them wholesale
// @Summary      Update tax rule
// @Tags         tax-rules
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Rule ID"
// @Param        payload  body  service.UpdateTaxRuleRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/rules/{id} [put]
func (h *TaxRuleHandler) UpdateRule(c *gin.Context) {
	var req service.UpdateTaxRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.ruleService.Update(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

// DeleteRule deletes a rule and cascades to its conditions and actions
// @Summary      Delete tax rule
// @Tags         tax-rules
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Rule ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/rules/{id} [delete]
func (h *TaxRuleHandler) DeleteRule(c *gin.Context) {
	if err := h.ruleService.Delete(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Tax rule deleted successfully"}))
}
