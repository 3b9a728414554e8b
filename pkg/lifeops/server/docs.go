package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/docs/v1"
)

func (s *LifeOpsServer) docs(c *gin.Context) (*docs.Service, bool) {
	svc, err := s.Google.Docs(c.Request.Context(), credentialFrom(c).TokenSource())
	if err != nil {
		s.downstreamError(c, err)
		return nil, false
	}
	return svc, true
}

func (s *LifeOpsServer) GetDocument(c *gin.Context) {
	svc, ok := s.docs(c)
	if !ok {
		return
	}
	doc, err := svc.Documents.Get(c.Param("document_id")).Context(c.Request.Context()).Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *LifeOpsServer) CreateDocument(c *gin.Context) {
	var body docs.Document
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.docs(c)
	if !ok {
		return
	}
	doc, err := svc.Documents.Create(&body).Context(c.Request.Context()).Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *LifeOpsServer) BatchUpdateDocument(c *gin.Context) {
	var body docs.BatchUpdateDocumentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.docs(c)
	if !ok {
		return
	}
	result, err := svc.Documents.BatchUpdate(c.Param("document_id"), &body).Context(c.Request.Context()).Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
