package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"
)

const appendSuffix = ":append"

type spreadsheetQuery struct {
	Fields string `form:"fields,default=sheets.properties.title"`
}

type valuesQuery struct {
	ValueInputOption string `form:"value_input_option,default=RAW"`
	InsertDataOption string `form:"insert_data_option,default=INSERT_ROWS"`
}

func (s *LifeOpsServer) sheets(c *gin.Context) (*sheets.Service, bool) {
	svc, err := s.Google.Sheets(c.Request.Context(), credentialFrom(c).TokenSource())
	if err != nil {
		s.downstreamError(c, err)
		return nil, false
	}
	return svc, true
}

func (s *LifeOpsServer) GetSpreadsheet(c *gin.Context) {
	var q spreadsheetQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.sheets(c)
	if !ok {
		return
	}
	spreadsheet, err := svc.Spreadsheets.Get(c.Param("spreadsheet_id")).
		Fields(googleapi.Field(q.Fields)).
		Context(c.Request.Context()).
		Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, spreadsheet)
}

func (s *LifeOpsServer) CreateSpreadsheet(c *gin.Context) {
	var body sheets.Spreadsheet
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.sheets(c)
	if !ok {
		return
	}
	spreadsheet, err := svc.Spreadsheets.Create(&body).Context(c.Request.Context()).Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, spreadsheet)
}

func (s *LifeOpsServer) GetValues(c *gin.Context) {
	svc, ok := s.sheets(c)
	if !ok {
		return
	}
	values, err := svc.Spreadsheets.Values.Get(c.Param("spreadsheet_id"), c.Param("range")).
		Context(c.Request.Context()).
		Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, values)
}

func (s *LifeOpsServer) UpdateValues(c *gin.Context) {
	var q valuesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err)
		return
	}
	var body sheets.ValueRange
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.sheets(c)
	if !ok {
		return
	}
	result, err := svc.Spreadsheets.Values.Update(c.Param("spreadsheet_id"), c.Param("range"), &body).
		ValueInputOption(q.ValueInputOption).
		Context(c.Request.Context()).
		Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AppendValues serves POST .../values/{range}:append.
func (s *LifeOpsServer) AppendValues(c *gin.Context) {
	valueRange, isAppend := strings.CutSuffix(c.Param("range"), appendSuffix)
	if !isAppend || valueRange == "" {
		s.handleError(nil, c, "Not Found", http.StatusNotFound)
		return
	}
	var q valuesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err)
		return
	}
	var body sheets.ValueRange
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	svc, ok := s.sheets(c)
	if !ok {
		return
	}
	result, err := svc.Spreadsheets.Values.Append(c.Param("spreadsheet_id"), valueRange, &body).
		ValueInputOption(q.ValueInputOption).
		InsertDataOption(q.InsertDataOption).
		Context(c.Request.Context()).
		Do()
	if err != nil {
		s.downstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
