package api

import (
	"net/http"
	"strconv"
	"time"

	"inventory-engine/internal/analytics"
	"inventory-engine/internal/deduct"
	"inventory-engine/internal/match"
	"inventory-engine/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	engine   *deduct.Engine
	matcher  *match.Matcher
	analyzer *analytics.Analyzer
}

// NewHandler creates a new HTTP handler
func NewHandler(engine *deduct.Engine, matcher *match.Matcher, analyzer *analytics.Analyzer) *Handler {
	return &Handler{
		engine:   engine,
		matcher:  matcher,
		analyzer: analyzer,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/deductions", h.deductForSale)
		v1.POST("/deductions/validate", h.validateSale)
		v1.POST("/match", h.matchIngredient)
		v1.GET("/stores/:storeId/consumption", h.consumptionPatterns)
		v1.GET("/stores/:storeId/reorder", h.reorderRecommendations)
		v1.GET("/stores/:storeId/alerts", h.stockAlerts)
		v1.GET("/stores/:storeId/status", h.inventoryStatus)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// deductForSale runs inventory deduction for a completed sale
func (h *Handler) deductForSale(c *gin.Context) {
	var req deduct.SaleRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.engine.DeductForSale(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to process deduction",
			"details": err.Error(),
		})
		return
	}

	// Partial failures still return the full result; callers inspect the
	// success flag and failure list.
	c.JSON(http.StatusOK, result)
}

// validateSale dry-runs availability for a sale without deducting
func (h *Handler) validateSale(c *gin.Context) {
	var req deduct.SaleRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.engine.ValidateForSale(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to validate sale",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

type matchRequest struct {
	IngredientName string `json:"ingredient_name" binding:"required"`
	IngredientUnit string `json:"ingredient_unit" binding:"required"`
	StoreID        string `json:"store_id" binding:"required"`
}

// matchIngredient resolves one ingredient name to an inventory item
func (h *Handler) matchIngredient(c *gin.Context) {
	var req matchRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.matcher.Match(c.Request.Context(), req.IngredientName, req.IngredientUnit, req.StoreID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to match ingredient",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// consumptionPatterns returns trailing-window consumption averages
func (h *Handler) consumptionPatterns(c *gin.Context) {
	storeID := c.Param("storeId")

	windowDays := 0
	if raw := c.Query("window_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid window_days",
			})
			return
		}
		windowDays = parsed
	}

	patterns, err := h.analyzer.ComputeConsumptionPatterns(c.Request.Context(), storeID, windowDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute consumption patterns",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"store_id": storeID,
		"patterns": patterns,
	})
}

// reorderRecommendations returns restock suggestions for a store
func (h *Handler) reorderRecommendations(c *gin.Context) {
	storeID := c.Param("storeId")

	recommendations, err := h.analyzer.GenerateReorderRecommendations(c.Request.Context(), storeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate recommendations",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"store_id":        storeID,
		"recommendations": recommendations,
	})
}

// stockAlerts returns threshold and spike alerts for a store. Serves the
// cached snapshot from the last sweep unless refresh=true forces a fresh
// evaluation.
func (h *Handler) stockAlerts(c *gin.Context) {
	storeID := c.Param("storeId")

	evaluate := h.analyzer.StockAlertSnapshot
	if c.Query("refresh") == "true" {
		evaluate = h.analyzer.MonitorStockAlerts
	}

	alerts, err := evaluate(c.Request.Context(), storeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to evaluate stock alerts",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"store_id": storeID,
		"alerts":   alerts,
	})
}

// inventoryStatus returns the per-store stock roll-up
func (h *Handler) inventoryStatus(c *gin.Context) {
	storeID := c.Param("storeId")

	status, err := h.analyzer.InventoryStatus(c.Request.Context(), storeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load inventory status",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, status)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
