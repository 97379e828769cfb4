package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mbelyaev/pricepulse/internal/analyzer"
	"github.com/mbelyaev/pricepulse/internal/scraper"
	"github.com/mbelyaev/pricepulse/internal/tracker"
)

// Handler serves the user-facing API. It reads and writes through the
// store and runs on-demand searches through the adapter registry; all
// tracking logic lives in the engine, not here.
type Handler struct {
	store         tracker.Store
	adapters      scraper.Registry
	log           *zap.Logger
	scrapeTimeout time.Duration
}

func NewHandler(store tracker.Store, adapters scraper.Registry, log *zap.Logger, scrapeTimeout time.Duration) *Handler {
	if scrapeTimeout <= 0 {
		scrapeTimeout = 10 * time.Second
	}
	return &Handler{
		store:         store,
		adapters:      adapters,
		log:           log.Named("api"),
		scrapeTimeout: scrapeTimeout,
	}
}

// Register mounts the v1 routes on the given group.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/search", h.Search)
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.GET("/products/:id/history", h.GetHistory)
	r.POST("/track", h.TrackProduct)
	r.POST("/alerts", h.CreateAlert)
	r.GET("/compare", h.Compare)
	r.GET("/trending", h.Trending)
	r.GET("/stats", h.Stats)
}

// Search scrapes every requested platform for the query, persists what it
// finds, and returns the results with a best-deal summary.
func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product name required"})
		return
	}

	only := map[string]bool{}
	if raw := c.Query("platforms"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			only[strings.TrimSpace(p)] = true
		}
	}

	ctx := c.Request.Context()
	var results []*scraper.Result
	for _, platform := range h.adapters.Platforms() {
		if len(only) > 0 && !only[platform] {
			continue
		}
		adapter, _ := h.adapters.Lookup(platform)

		fetchCtx, cancel := context.WithTimeout(ctx, h.scrapeTimeout)
		res, err := adapter.Fetch(fetchCtx, query)
		cancel()
		if err != nil {
			h.log.Warn("search scrape failed", zap.String("platform", platform), zap.Error(err))
			continue
		}

		key := tracker.ProductKey{Name: res.Name, Platform: res.Platform, URL: res.URL}
		if _, err := h.store.SaveObservation(ctx, key, res.Price, res.Currency, res.FetchedAt); err != nil {
			h.log.Error("save search result failed", zap.String("platform", platform), zap.Error(err))
		}
		results = append(results, res)
	}

	if len(results) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "no results found, try a different search term",
		})
		return
	}

	best, worst := results[0], results[0]
	for _, r := range results[1:] {
		if r.Price < best.Price {
			best = r
		}
		if r.Price > worst.Price {
			worst = r
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(results),
		"results": results,
		"analysis": gin.H{
			"best_platform":     best.Platform,
			"best_price":        best.Price,
			"potential_savings": worst.Price - best.Price,
			"total_platforms":   len(results),
		},
	})
}

func (h *Handler) ListProducts(c *gin.Context) {
	list, err := h.store.ListProducts(c.Request.Context())
	if err != nil {
		h.log.Error("list products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	p, err := h.store.ProductByID(c.Request.Context(), id)
	if err != nil {
		h.log.Error("get product failed", zap.Int("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch product"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetHistory(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
		return
	}

	ctx := c.Request.Context()
	p, err := h.store.ProductByID(ctx, id)
	if err != nil {
		h.log.Error("get product failed", zap.Int("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch product"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	history, err := h.store.History(ctx, id, time.Duration(days)*24*time.Hour)
	if err != nil {
		h.log.Error("get history failed", zap.Int("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	points := make([]analyzer.Point, len(history))
	for i, o := range history {
		points[i] = analyzer.Point{Price: o.Price, At: o.RecordedAt}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"history":        history,
		"trend":          analyzer.Trend(points),
		"recommendation": analyzer.Recommend(points),
		"savings":        analyzer.Savings(points),
	})
}

type trackInput struct {
	Name     string `json:"name" binding:"required"`
	Platform string `json:"platform" binding:"required"`
	URL      string `json:"url"`
}

func (h *Handler) TrackProduct(c *gin.Context) {
	var input trackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if _, ok := h.adapters.Lookup(input.Platform); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform"})
		return
	}

	p, err := h.store.RegisterProduct(c.Request.Context(), tracker.ProductKey{
		Name:     input.Name,
		Platform: input.Platform,
		URL:      input.URL,
	})
	if err != nil {
		h.log.Error("register product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

type alertInput struct {
	ProductID   int     `json:"product_id" binding:"required"`
	TargetPrice float64 `json:"target_price" binding:"required,gt=0"`
	Email       string  `json:"email" binding:"required,email"`
}

func (h *Handler) CreateAlert(c *gin.Context) {
	var input alertInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	ctx := c.Request.Context()
	p, err := h.store.ProductByID(ctx, input.ProductID)
	if err != nil {
		h.log.Error("get product failed", zap.Int("id", input.ProductID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch product"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	id, err := h.store.CreateAlert(ctx, input.ProductID, input.TargetPrice, input.Email)
	if err != nil {
		h.log.Error("create alert failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create alert"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"alert_id": id,
		"message":  "alert created, you will be notified when the price drops",
	})
}

func (h *Handler) Compare(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product name required"})
		return
	}

	entries, err := h.store.LatestByName(c.Request.Context(), name)
	if err != nil {
		h.log.Error("compare failed", zap.String("name", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compare"})
		return
	}

	points := make([]analyzer.PlatformPrice, len(entries))
	for i, e := range entries {
		points[i] = analyzer.PlatformPrice{
			Platform:   e.Platform,
			Price:      e.Price,
			URL:        e.URL,
			RecordedAt: e.RecordedAt,
		}
	}
	report := analyzer.ComparePlatforms(points)
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comparison": report})
}

func (h *Handler) Trending(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	trending, err := h.store.Trending(c.Request.Context(), 7*24*time.Hour, limit)
	if err != nil {
		h.log.Error("trending failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch trending"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "trending": trending})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.store.PlatformStats(c.Request.Context())
	if err != nil {
		h.log.Error("stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"platforms": h.adapters.Platforms(),
	})
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}
