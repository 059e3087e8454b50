package mock

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewGinHandler builds the mock API on gin.
func NewGinHandler(svc *Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), ginCORS())

	api := r.Group("/api")
	api.GET("/hello", func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Hello())
	})
	api.GET("/users", func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Users())
	})
	api.POST("/users", func(c *gin.Context) {
		var req CreateUserRequest
		if !ginBind(c, &req) {
			return
		}
		c.JSON(http.StatusCreated, svc.CreateUser(req))
	})
	api.GET("/trees", func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Trees())
	})
	api.POST("/trees", func(c *gin.Context) {
		var req CreateTreeRequest
		if !ginBind(c, &req) {
			return
		}
		c.JSON(http.StatusCreated, svc.CreateTree(req))
	})
	api.GET("/trees/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Tree(c.Param("id")))
	})
	return r
}

func ginBind(c *gin.Context, out any) bool {
	data, err := c.GetRawData()
	if err == nil {
		err = decodeBody(data, out)
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, badRequest(err))
		return false
	}
	return true
}

func ginCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		setCORSHeaders(c.Writer.Header())
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
