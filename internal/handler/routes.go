package handler

import (
	"github.com/gin-gonic/gin"
)

// Routes groups the handlers mounted on the public router.
type Routes struct {
	Wizard  *WizardHandler
	Preview *PreviewHandler
	Metrics *MetricsHandler
	// Session guards every wizard route except start and the questionnaire catalogue.
	Session gin.HandlerFunc
}

// Register mounts the wizard API under api and previews and ops endpoints on root.
func (r Routes) Register(root gin.IRouter, api gin.IRouter) {
	if r.Metrics != nil {
		root.GET("/health", r.Metrics.Health)
		root.GET("/ready", r.Metrics.Ready)
		root.GET("/metrics", r.Metrics.Prometheus)
	}
	if r.Preview != nil {
		root.GET("/previews/:token", r.Preview.Serve)
	}
	if r.Wizard == nil {
		return
	}

	wizard := api.Group("/wizard")
	wizard.POST("", r.Wizard.Start)
	wizard.GET("/questionnaire", r.Wizard.Questionnaire)

	owned := wizard.Group("")
	if r.Session != nil {
		owned.Use(r.Session)
	}
	owned.GET("", r.Wizard.Get)
	owned.DELETE("", r.Wizard.Delete)
	owned.PUT("/files/:slot", r.Wizard.PutFile)
	owned.DELETE("/files/:slot", r.Wizard.DeleteFile)
	owned.PATCH("/form", r.Wizard.PatchForm)
	owned.POST("/advance", r.Wizard.Advance)
	owned.POST("/retreat", r.Wizard.Retreat)
	owned.GET("/report", r.Wizard.Report)
	owned.POST("/report/download", r.Wizard.ReportDownload)
	owned.POST("/report/share", r.Wizard.ReportShare)
}
