package app

import (
	"github.com/farmgate/farmgate/internal/controllers"
	"github.com/farmgate/farmgate/internal/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

func SetupMappings(app *Application) {
	v1 := app.Engine.Group("/v1/farmgate")
	authed := v1.Group("", middleware.RequireAuth(app.Profile, app.Logger))
	farmer := v1.Group("", middleware.RequireFarmer(app.Profile, app.Logger))
	buyer := v1.Group("", middleware.RequireBuyer(app.Profile, app.Logger))
	{
		v1.POST("/users", controllers.NewRegisterUserController(app.Users).Handle)
		v1.POST("/login", middleware.RateLimitLogin(app.RateLimiter, app.Config), controllers.NewLoginController(app.Auth).Handle)
		v1.POST("/token/refresh", controllers.NewRefreshController(app.Auth).Handle)

		authed.GET("/users/me", controllers.NewGetUserController(app.Users).Handle)
		authed.PUT("/users/me/type", controllers.NewChangeUserTypeController(app.Users).Handle)
		authed.POST("/users/me/addresses", controllers.NewAddAddressController(app.Users).Handle)
		authed.DELETE("/users/me/addresses/:id", controllers.NewDeleteAddressController(app.Users).Handle)

		authed.GET("/products", controllers.NewListProductsController(app.Products).Handle)
		authed.GET("/products/:id", controllers.NewGetProductController(app.Products).Handle)
		farmer.POST("/products", controllers.NewCreateProductController(app.Products).Handle)
		farmer.PUT("/products/:id", controllers.NewUpdateProductController(app.Products).Handle)
		farmer.DELETE("/products/:id", controllers.NewDeleteProductController(app.Products).Handle)

		buyer.POST("/contracts", controllers.NewCreateContractController(app.Contracts).Handle)
		authed.GET("/contracts", controllers.NewListContractsController(app.Contracts).Handle)
		authed.GET("/contracts/:id", controllers.NewGetContractController(app.Contracts).Handle)
		farmer.POST("/contracts/:id/accept", controllers.NewAcceptContractController(app.Contracts).Handle)
	}

	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
