package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimit caps each client IP to perHour requests over a sliding
// one-hour window. State is in-process, which matches the single-instance
// deployment model.
func RateLimit(perHour int) gin.HandlerFunc {
	var (
		mu      sync.Mutex
		clients = make(map[string][]time.Time)
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()
		cutoff := now.Add(-time.Hour)

		mu.Lock()
		recent := clients[ip][:0]
		for _, t := range clients[ip] {
			if t.After(cutoff) {
				recent = append(recent, t)
			}
		}
		if len(recent) >= perHour {
			clients[ip] = recent
			mu.Unlock()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate limit exceeded",
				"message": "too many requests, try again later",
			})
			return
		}
		clients[ip] = append(recent, now)
		mu.Unlock()

		c.Next()
	}
}
