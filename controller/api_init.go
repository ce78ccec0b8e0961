package controller

import "github.com/labstack/echo/v4"

func (ctrl *controller) apiInit(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.Use(ctrl.APIKeyAuthMiddleware())

	api.GET("/me", ctrl.apiMe)

	// lead table
	api.GET("/leads/table", ctrl.apiTableGet)
	api.POST("/leads/table/search", ctrl.apiTableSearch)
	api.POST("/leads/table/page", ctrl.apiTablePage)
	api.POST("/leads/table/refresh", ctrl.apiTableRefresh)
	api.GET("/leads/table/export", ctrl.apiTableExport)

	api.GET("/dashboard", ctrl.apiDashboard)

	// token management
	api.GET("/tokens", ctrl.apiListTokens)
	api.POST("/tokens", ctrl.apiCreateToken)
	api.DELETE("/tokens/:id", ctrl.apiRevokeToken)
}
