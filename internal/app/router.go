package app

import (
	"time"

	"skillforge_backend/docs"
	"skillforge_backend/internal/config"
	"skillforge_backend/internal/middleware"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/monitoring"
	"skillforge_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.LearnerMiddleware(s.profile))
	{
		generation := generationLimiter(cfg)
		a.registerProjectRoutes(authGroup, c, generation)
		a.registerChallengeRoutes(authGroup, c, generation)
		a.registerLearnerRoutes(authGroup, c)
	}
}

// generationLimiter 调用预测服务的接口按学习者限流
func generationLimiter(cfg *config.Config) gin.HandlerFunc {
	return security.KeyedRateLimiter(cfg.RateLimit.GenerationPerHour, time.Hour, func(c *gin.Context) string {
		if claims := util.GetClaimsFromContext(c); claims != nil {
			return claims.Subject
		}
		return ""
	})
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/portfolio/:username", c.progress.GetPortfolio)
	}
}

func (a *App) registerProjectRoutes(group *gin.RouterGroup, c *controllers, generation gin.HandlerFunc) {
	projects := group.Group("/projects")
	{
		projects.POST("", generation, c.project.GenerateProject)
		projects.GET("", c.project.ListProjects)
		projects.GET("/:id", c.project.GetProject)
		projects.PUT("/:id/milestones", c.project.UpdateMilestones)
		projects.POST("/:id/submit", generation, c.project.SubmitProject)
		projects.POST("/:id/hint", generation, c.project.GetHint)
	}
}

func (a *App) registerChallengeRoutes(group *gin.RouterGroup, c *controllers, generation gin.HandlerFunc) {
	challenges := group.Group("/challenges")
	{
		challenges.GET("", c.challenge.ListChallenges)
		challenges.POST("", generation, c.challenge.GenerateChallenge)
		challenges.GET("/mine", c.challenge.ListMyChallenges)
		challenges.GET("/daily", generation, c.challenge.DailyChallenges)
		challenges.POST("/accept", c.challenge.AcceptChallenge)
		challenges.POST("/:id/start", c.challenge.StartChallenge)
		challenges.POST("/:id/submit", c.challenge.SubmitChallenge)
		challenges.POST("/:id/abandon", c.challenge.AbandonChallenge)
	}
}

func (a *App) registerLearnerRoutes(group *gin.RouterGroup, c *controllers) {
	group.GET("/dashboard", c.progress.GetDashboard)
	group.GET("/dashboard/skills", c.progress.GetSkills)

	profile := group.Group("/profile")
	{
		profile.GET("", c.profile.GetProfile)
		profile.PUT("", c.profile.UpdateProfile)
		profile.PUT("/visibility", c.profile.UpdateVisibility)
		profile.POST("/:kind", c.profile.UploadFile)
	}

	identities := group.Group("/identities")
	{
		identities.GET("", c.identity.ListIdentities)
		identities.PUT("/:provider", c.identity.LinkIdentity)
		identities.DELETE("/:provider", c.identity.UnlinkIdentity)
	}
}
