package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const (
	createdFileFields = "id,name,webViewLink"
	listFileFields    = "files(id,name,mimeType,modifiedTime,webViewLink,parents)"
	getFileFields     = "id,name,mimeType,modifiedTime,webViewLink"
)

type filesQuery struct {
	Q        string `form:"q"`
	PageSize int64  `form:"page_size,default=100"`
	OrderBy  string `form:"order_by,default=modifiedTime desc"`
	Fields   string `form:"fields"`
}

type fileQuery struct {
	Fields string `form:"fields"`
}

// orDefault covers defaults that cannot live in a form tag, which splits on commas.
func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func (s *LifeOpsServer) drive(c *gin.Context) (*drive.Service, bool) {
	svc, err := s.Google.Drive(c.Request.Context(), credentialFrom(c).TokenSource())
	if err != nil {
		s.downstreamError(c, err)
		return nil, false
	}
	return svc, true
}

func (s *LifeOpsServer) ListFiles(c *gin.Context) {
	var q filesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.drive(c)
	if !ok {
		return
	}
	call := svc.Files.List().
		PageSize(q.PageSize).
		OrderBy(q.OrderBy).
		Fields(googleapi.Field(orDefault(q.Fields, listFileFields))).
		Context(c.Request.Context())
	if q.Q != "" {
		call = call.Q(q.Q)
	}
	list, err := call.Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	files := list.Files
	if files == nil {
		files = []*drive.File{}
	}
	c.JSON(http.StatusOK, files)
}

func (s *LifeOpsServer) GetFile(c *gin.Context) {
	var q fileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.drive(c)
	if !ok {
		return
	}
	file, err := svc.Files.Get(c.Param("file_id")).
		Fields(googleapi.Field(orDefault(q.Fields, getFileFields))).
		Context(c.Request.Context()).
		Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *LifeOpsServer) CreateFile(c *gin.Context) {
	var body drive.File
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.drive(c)
	if !ok {
		return
	}
	file, err := svc.Files.Create(&body).Fields(createdFileFields).Context(c.Request.Context()).Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *LifeOpsServer) UpdateFile(c *gin.Context) {
	var body drive.File
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.drive(c)
	if !ok {
		return
	}
	file, err := svc.Files.Update(c.Param("file_id"), &body).Context(c.Request.Context()).Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *LifeOpsServer) DeleteFile(c *gin.Context) {
	svc, ok := s.drive(c)
	if !ok {
		return
	}
	if err := svc.Files.Delete(c.Param("file_id")).Context(c.Request.Context()).Do(); err != nil {
		s.downstreamError(c, err)
		return
	}
	deleted(c)
}
