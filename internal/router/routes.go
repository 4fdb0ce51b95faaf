package router

import (
	"github.com/gin-gonic/gin"
	"github.com/navid-fn/coinview/internal/handler"
)

func registerMarketRoutes(router *gin.RouterGroup, marketHandler *handler.MarketHandler, searchHandler *handler.SearchHandler) {
	coins := router.Group("/coins")
	{
		coins.GET("", marketHandler.GetCoins)
		coins.GET("/:uuid", marketHandler.GetCoin)
		coins.GET("/:uuid/history", marketHandler.GetHistory)
	}

	router.GET("/market", marketHandler.GetMarket)
	router.GET("/calculator", marketHandler.GetCalculator)
	router.GET("/news", marketHandler.GetNews)

	search := router.Group("/search")
	{
		search.GET("", searchHandler.Search)
		search.GET("/live", searchHandler.Live)
	}
}

func registerAccountRoutes(router *gin.RouterGroup, accountHandler *handler.AccountHandler, profileHandler *handler.ProfileHandler) {
	auth := router.Group("/auth")
	{
		auth.POST("/signin", accountHandler.SignIn)
		auth.POST("/signup", accountHandler.SignUp)
		auth.POST("/signout", accountHandler.SignOut)
		auth.GET("/session", accountHandler.GetSession)
	}

	profile := router.Group("/profile")
	{
		profile.GET("", profileHandler.GetProfile)
		profile.PUT("", profileHandler.UpdateProfile)
		profile.POST("/avatar", profileHandler.UploadAvatar)
	}

	router.GET("/avatar/url", profileHandler.GetAvatarURL)
}

func registerHealthRoutes(router *gin.Engine, healthHandler *handler.HealthHandler) {
	health := router.Group("/health")
	{
		health.GET("", healthHandler.Health)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/live", healthHandler.Live)
	}
}
