package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-bk-api/internal/dto"
	"github.com/noah-isme/sma-bk-api/internal/models"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
)

type caseServiceMock struct {
	intakeResp  *dto.AssignmentOutcome
	intakeErr   error
	confirmResp *dto.AssignmentOutcome
	confirmErr  error
	confirmedID string
}

func (m *caseServiceMock) Intake(ctx context.Context, req dto.IntakeCaseRequest) (*dto.AssignmentOutcome, error) {
	if m.intakeErr != nil {
		return nil, m.intakeErr
	}
	return m.intakeResp, nil
}

func (m *caseServiceMock) Confirm(ctx context.Context, caseID string) (*dto.AssignmentOutcome, error) {
	m.confirmedID = caseID
	if m.confirmErr != nil {
		return nil, m.confirmErr
	}
	return m.confirmResp, nil
}

func (m *caseServiceMock) Reject(ctx context.Context, caseID string) (*dto.AssignmentOutcome, error) {
	return m.confirmResp, nil
}

func (m *caseServiceMock) Pending(ctx context.Context) []dto.AssignmentOutcome {
	return nil
}

func (m *caseServiceMock) TodayCases(ctx context.Context) []models.CaseFile {
	return []models.CaseFile{{ID: "kasus-1"}}
}

func TestCaseHandlerIntake(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &caseServiceMock{intakeResp: &dto.AssignmentOutcome{Status: "ASSIGNED"}}
	handler := NewCaseHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.IntakeCaseRequest{CaseType: "REFERRAL", IsNew: true})
	req, _ := http.NewRequest(http.MethodPost, "/cases", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Intake(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "ASSIGNED")
}

func TestCaseHandlerIntakeInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCaseHandler(&caseServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/cases", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Intake(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCaseHandlerConfirmPassesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &caseServiceMock{confirmResp: &dto.AssignmentOutcome{Status: "ASSIGNED"}}
	handler := NewCaseHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/cases/kasus-1/confirm", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "kasus-1"}}

	handler.Confirm(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "kasus-1", mock.confirmedID)
}

func TestCaseHandlerConfirmNotPending(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &caseServiceMock{confirmErr: appErrors.ErrNotPending}
	handler := NewCaseHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/cases/missing/confirm", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Confirm(c)
	assert.Equal(t, appErrors.ErrNotPending.Status, w.Code)
}

func TestCaseHandlerToday(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCaseHandler(&caseServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/cases/today", nil)
	c.Request = req

	handler.Today(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "kasus-1")
}
