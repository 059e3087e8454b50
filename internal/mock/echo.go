package mock

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewEchoHandler builds the mock API on echo.
func NewEchoHandler(svc *Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := e.Group("/api")
	api.GET("/hello", func(c echo.Context) error {
		return c.JSON(http.StatusOK, svc.Hello())
	})
	api.GET("/users", func(c echo.Context) error {
		return c.JSON(http.StatusOK, svc.Users())
	})
	api.POST("/users", func(c echo.Context) error {
		var req CreateUserRequest
		if err := echoBind(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, badRequest(err))
		}
		return c.JSON(http.StatusCreated, svc.CreateUser(req))
	})
	api.GET("/trees", func(c echo.Context) error {
		return c.JSON(http.StatusOK, svc.Trees())
	})
	api.POST("/trees", func(c echo.Context) error {
		var req CreateTreeRequest
		if err := echoBind(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, badRequest(err))
		}
		return c.JSON(http.StatusCreated, svc.CreateTree(req))
	})
	api.GET("/trees/:id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, svc.Tree(c.Param("id")))
	})
	return e
}

func echoBind(c echo.Context, out any) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	return decodeBody(data, out)
}
