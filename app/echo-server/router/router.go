package router

import (
	"myPropertyHub/internal/rest"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetRecommendationRoutes(api *echo.Group, handler *rest.RecommendationHandler, authRequired echo.MiddlewareFunc) {
	reco := api.Group("/recommendations", authRequired)

	reco.GET("", handler.List)
	reco.POST("/:id/shown", handler.Shown)
	reco.POST("/:id/click", handler.Click)
	reco.POST("/:id/feedback", handler.Feedback)
}

func SetOpsRoutes(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
