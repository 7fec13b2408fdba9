package handlers

import (
	"net/http"
	"sync"

	intconfig "salonbackend/internal/config"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for later inspection (e.g., /api/routes).
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DBCheck pings the database and reports ledger rows per payment status.
func DBCheck(c *gin.Context) {
	ctx := c.Request.Context()
	if err := intconfig.PingDB(ctx); err != nil {
		respondError(c, http.StatusServiceUnavailable, "db_unavailable", "database not reachable", err.Error())
		return
	}
	rows, err := intconfig.DB.QueryContext(ctx, "SELECT status, COUNT(*) FROM payments GROUP BY status")
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to query database", err.Error())
		return
	}
	defer rows.Close()

	byStatus := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			respondError(c, http.StatusInternalServerError, "internal_error", "failed to read payments", err.Error())
			return
		}
		byStatus[status] = n
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "payments_by_status": byStatus})
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		respondError(c, http.StatusServiceUnavailable, "not_ready", "router not ready", nil)
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
