package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jr0d/lifeops/pkg/lifeops"
	"github.com/jr0d/lifeops/pkg/lifeops/google"
)

// Router wires every endpoint. Routes under /api require a credential.
func (s *LifeOpsServer) Router() *gin.Engine {
	if s.Google == nil {
		s.Google = &google.Factory{}
	}

	r := gin.New()
	// Sheet ranges may carry an encoded "/" inside a single path segment.
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.Recovery(), s.requestID, s.accessLog, s.cors())
	r.NoRoute(func(c *gin.Context) {
		s.handleError(nil, c, "Not Found", http.StatusNotFound)
	})

	r.GET(lifeops.HealthEndpoint, s.Health)
	r.GET(lifeops.StatusEndpoint, s.AuthStatus)
	r.GET(lifeops.LoginEndpoint, s.Login)
	r.GET(lifeops.CallbackEndpoint, s.AuthCallback)
	r.POST(lifeops.LogoutEndpoint, s.Logout)

	api := r.Group("/api", s.requireCredential)

	api.GET("/calendar/events", s.ListEvents)
	api.POST("/calendar/events", s.CreateEvent)
	api.PATCH("/calendar/events/:event_id", s.UpdateEvent)
	api.DELETE("/calendar/events/:event_id", s.DeleteEvent)

	api.GET("/tasks/lists", s.ListTaskLists)
	api.GET("/tasks/:tasklist_id", s.ListTasks)
	api.POST("/tasks/:tasklist_id", s.CreateTask)
	api.PATCH("/tasks/:tasklist_id/:task_id", s.UpdateTask)
	api.DELETE("/tasks/:tasklist_id/:task_id", s.DeleteTask)

	api.POST("/sheets", s.CreateSpreadsheet)
	api.GET("/sheets/:spreadsheet_id", s.GetSpreadsheet)
	api.GET("/sheets/:spreadsheet_id/values/:range", s.GetValues)
	api.PUT("/sheets/:spreadsheet_id/values/:range", s.UpdateValues)
	// The range segment carries the ":append" suffix.
	api.POST("/sheets/:spreadsheet_id/values/:range", s.AppendValues)

	api.GET("/drive/files", s.ListFiles)
	api.POST("/drive/files", s.CreateFile)
	api.GET("/drive/files/:file_id", s.GetFile)
	api.PATCH("/drive/files/:file_id", s.UpdateFile)
	api.DELETE("/drive/files/:file_id", s.DeleteFile)

	api.POST("/docs", s.CreateDocument)
	api.GET("/docs/:document_id", s.GetDocument)
	api.POST("/docs/:document_id/batchUpdate", s.BatchUpdateDocument)

	return r
}

func (s *LifeOpsServer) downstreamError(c *gin.Context, err error) {
	s.handleError(err, c, google.ErrorMessage(err), http.StatusInternalServerError)
}

func (s *LifeOpsServer) badRequest(c *gin.Context, err error) {
	s.handleError(err, c, err.Error(), http.StatusBadRequest)
}

func deleted(c *gin.Context) {
	c.JSON(http.StatusOK, lifeops.SuccessResponse{Success: true})
}
