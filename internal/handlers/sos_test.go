package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/mocks"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
)

func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func setupSOSRouter(handler *SOSHandler, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != 0 {
			c.Set("userID", userID)
		}
		c.Next()
	})
	r.POST("/sos", handler.Create)
	return r
}

func TestSOSAnonymousAlertAccepted(t *testing.T) {
	sos := new(mocks.SOSRepositoryMock)
	dispatcher := new(mocks.DispatcherMock)
	handler := NewSOSHandler(sos, dispatcher, nil)
	router := setupSOSRouter(handler, 0)

	sos.On("CreateSOS", mock.Anything, (*int)(nil), floatPtr(12.97), floatPtr(77.59), floatPtr(8.5)).
		Return(models.SOSEvent{ID: 1, Lat: floatPtr(12.97)}, nil).Once()
	dispatcher.On("DispatchSOS", mock.Anything, 1).Return(nil).Once()

	rec := postJSON(t, router, "/sos", `{"lat":12.97,"lng":77.59,"accuracy_m":8.5}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.SOSEvent
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 1, resp.ID)
	sos.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestSOSAuthenticatedAlertCarriesUser(t *testing.T) {
	sos := new(mocks.SOSRepositoryMock)
	dispatcher := new(mocks.DispatcherMock)
	handler := NewSOSHandler(sos, dispatcher, nil)
	router := setupSOSRouter(handler, 7)

	sos.On("CreateSOS", mock.Anything, intPtr(7), (*float64)(nil), (*float64)(nil), (*float64)(nil)).
		Return(models.SOSEvent{ID: 2, UserID: intPtr(7)}, nil).Once()
	dispatcher.On("DispatchSOS", mock.Anything, 2).Return(nil).Once()

	// no location fix at all is still a valid alert
	rec := postJSON(t, router, "/sos", `{}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	sos.AssertExpectations(t)
}

func TestSOSDispatchFailureDoesNotFailRequest(t *testing.T) {
	sos := new(mocks.SOSRepositoryMock)
	dispatcher := new(mocks.DispatcherMock)
	handler := NewSOSHandler(sos, dispatcher, nil)
	router := setupSOSRouter(handler, 0)

	sos.On("CreateSOS", mock.Anything, (*int)(nil), (*float64)(nil), (*float64)(nil), (*float64)(nil)).
		Return(models.SOSEvent{ID: 3}, nil).Once()
	dispatcher.On("DispatchSOS", mock.Anything, 3).Return(assert.AnError).Once()

	rec := postJSON(t, router, "/sos", `{}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	dispatcher.AssertExpectations(t)
}

func TestSOSStoreFailure(t *testing.T) {
	sos := new(mocks.SOSRepositoryMock)
	dispatcher := new(mocks.DispatcherMock)
	handler := NewSOSHandler(sos, dispatcher, nil)
	router := setupSOSRouter(handler, 0)

	sos.On("CreateSOS", mock.Anything, (*int)(nil), (*float64)(nil), (*float64)(nil), (*float64)(nil)).
		Return(models.SOSEvent{}, assert.AnError).Once()

	rec := postJSON(t, router, "/sos", `{}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	dispatcher.AssertNotCalled(t, "DispatchSOS", mock.Anything, mock.Anything)
}
