package config

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
	"github.com/robfig/cron/v3"
)

func InitApp(cfg *Config) (*gin.Engine, *melody.Melody, *cron.Cron) {
	if cfg.AppEnv == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	configCors := cors.DefaultConfig()
	configCors.AddAllowHeaders("Authorization", "Idempotency-Key", "X-Actor")
	configCors.AllowCredentials = true
	configCors.AllowAllOrigins = false
	configCors.AllowOriginFunc = func(origin string) bool {
		return true
	}
	router.Use(cors.New(configCors))

	_ = router.SetTrustedProxies(nil)

	m := melody.New()
	c := cron.New()

	return router, m, c
}

func InitWebSocket(router *gin.Engine, m *melody.Melody) {
	router.GET("/ws", func(c *gin.Context) {
		_ = m.HandleRequest(c.Writer, c.Request)
	})
}
