package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/tasks/v1"

	"github.com/jr0d/lifeops/pkg/lifeops/google"
)

const maxTasks = 100

func (s *LifeOpsServer) tasks(c *gin.Context) (*tasks.Service, bool) {
	svc, err := s.Google.Tasks(c.Request.Context(), credentialFrom(c).TokenSource())
	if err != nil {
		s.downstreamError(c, err)
		return nil, false
	}
	return svc, true
}

func (s *LifeOpsServer) ListTaskLists(c *gin.Context) {
	svc, ok := s.tasks(c)
	if !ok {
		return
	}
	lists, err := svc.Tasklists.List().Context(c.Request.Context()).Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	items := lists.Items
	if items == nil {
		items = []*tasks.TaskList{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *LifeOpsServer) ListTasks(c *gin.Context) {
	svc, ok := s.tasks(c)
	if !ok {
		return
	}
	result, err := svc.Tasks.List(c.Param("tasklist_id")).
		ShowCompleted(true).
		ShowHidden(true).
		MaxResults(maxTasks).
		Context(c.Request.Context()).
		Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	items := result.Items
	if items == nil {
		items = []*tasks.Task{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *LifeOpsServer) CreateTask(c *gin.Context) {
	var body google.TaskCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.tasks(c)
	if !ok {
		return
	}
	task, err := svc.Tasks.Insert(c.Param("tasklist_id"), body.Task()).Context(c.Request.Context()).Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *LifeOpsServer) UpdateTask(c *gin.Context) {
	var body google.TaskUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.tasks(c)
	if !ok {
		return
	}
	task, err := svc.Tasks.Patch(c.Param("tasklist_id"), c.Param("task_id"), body.Task()).Context(c.Request.Context()).Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *LifeOpsServer) DeleteTask(c *gin.Context) {
	svc, ok := s.tasks(c)
	if !ok {
		return
	}
	if err := svc.Tasks.Delete(c.Param("tasklist_id"), c.Param("task_id")).Context(c.Request.Context()).Do(); err != nil {
		s.downstreamError(c, err)
		return
	}
	deleted(c)
}
