package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zulandar/caravan/internal/inventory"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB) {
	router.GET("/", handleIndex(db))
	router.GET("/healthz", handleHealth(db))
	router.GET("/api/datasets", handleDatasets(db))
	router.GET("/api/datasets/:uuid/siblings", handleSiblings(db))
}

func handleIndex(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := inventory.Datasets(db)
		if err != nil {
			c.String(http.StatusInternalServerError, "%v", err)
			return
		}
		c.HTML(http.StatusOK, "index", gin.H{"datasets": recs})
	}
}

func handleHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := inventory.Datasets(db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleDatasets(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := inventory.Datasets(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, recs)
	}
}

func handleSiblings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := c.Param("uuid")
		rec, err := inventory.DatasetByUUID(db, uuid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown dataset"})
			return
		}
		sibs, err := inventory.Siblings(db, uuid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"dataset": rec, "siblings": sibs})
	}
}
