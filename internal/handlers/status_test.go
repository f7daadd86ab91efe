package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"linkup/internal/mocks"
	"linkup/internal/models"
	"linkup/internal/repositories"
	"linkup/internal/ws"
)

func setupStatusRouter(handler *StatusHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/statuses", handler.List)
	r.POST("/statuses", handler.Create)
	r.POST("/statuses/:status_id/view", handler.View)
	r.DELETE("/statuses/:status_id", handler.Delete)
	return r
}

func newStatusHandler(statuses *mocks.StatusRepositoryMock) *StatusHandler {
	users := new(mocks.UserRepositoryMock)
	users.On("SetPresence", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	broadcaster := ws.NewStatusBroadcaster(ws.NewRegistry(users))
	return NewStatusHandler(statuses, broadcaster, nil, nil)
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateStatusText(t *testing.T) {
	statuses := new(mocks.StatusRepositoryMock)
	handler := newStatusHandler(statuses)
	router := setupStatusRouter(handler)

	statuses.On("Create", mock.Anything, mock.MatchedBy(func(s models.Status) bool {
		return s.UserID == 1 && s.Content == "hello" && s.ContentType == models.ContentTypeText && !s.ExpiresAt.IsZero()
	})).Return(models.Status{ID: 4, UserID: 1, Content: "hello"}, nil).Once()

	rec := postForm(router, "/statuses", url.Values{"content": {"hello"}})

	require.Equal(t, http.StatusCreated, rec.Code)
	statuses.AssertExpectations(t)
}

func TestCreateStatusEmptyRejected(t *testing.T) {
	statuses := new(mocks.StatusRepositoryMock)
	handler := newStatusHandler(statuses)
	router := setupStatusRouter(handler)

	rec := postForm(router, "/statuses", url.Values{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	statuses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListStatuses(t *testing.T) {
	statuses := new(mocks.StatusRepositoryMock)
	handler := newStatusHandler(statuses)
	router := setupStatusRouter(handler)

	statuses.On("ListActive", mock.Anything).Return([]models.Status{{ID: 4}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/statuses", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	statuses.AssertExpectations(t)
}

func TestViewStatusRecordsViewer(t *testing.T) {
	statuses := new(mocks.StatusRepositoryMock)
	handler := newStatusHandler(statuses)
	router := setupStatusRouter(handler)

	statuses.On("AddViewer", mock.Anything, 4, 1).
		Return(models.Status{ID: 4, UserID: 2, Viewers: []int{1}}, nil).Once()

	rec := postForm(router, "/statuses/4/view", url.Values{})

	require.Equal(t, http.StatusOK, rec.Code)
	statuses.AssertExpectations(t)
}

func TestViewStatusNotFound(t *testing.T) {
	statuses := new(mocks.StatusRepositoryMock)
	handler := newStatusHandler(statuses)
	router := setupStatusRouter(handler)

	statuses.On("AddViewer", mock.Anything, 4, 1).Return(models.Status{}, repositories.ErrStatusNotFound).Once()

	rec := postForm(router, "/statuses/4/view", url.Values{})

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteStatusNotOwnerForbidden(t *testing.T) {
	statuses := new(mocks.StatusRepositoryMock)
	handler := newStatusHandler(statuses)
	router := setupStatusRouter(handler)

	statuses.On("Delete", mock.Anything, 4, 1).Return(repositories.ErrStatusNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/statuses/4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	statuses.AssertExpectations(t)
}

func TestDeleteStatusSuccess(t *testing.T) {
	statuses := new(mocks.StatusRepositoryMock)
	handler := newStatusHandler(statuses)
	router := setupStatusRouter(handler)

	statuses.On("Delete", mock.Anything, 4, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/statuses/4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	statuses.AssertExpectations(t)
}
