package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"admin-gateway-service/internal/cache"
	"admin-gateway-service/internal/middleware"
	"admin-gateway-service/internal/platform"
	"admin-gateway-service/internal/services"
)

// upstreamStub fakes the platform API behind the gateway.
type upstreamStub struct {
	server      *httptest.Server
	failUpdates bool
	updates     []string
	deletes     [][]string
}

func newUpstreamStub() *upstreamStub {
	stub := &upstreamStub{}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			records := []map[string]interface{}{
				{"user_id": "u-1", "first_name": "Ada", "last_name": "Lovelace", "status": "active"},
				{"user_id": "u-2", "first_name": "Alan", "last_name": "Turing", "status": "active"},
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{
					"page": 1, "limit": 20, "total": 2, "data": records,
				},
			})
		case http.MethodPut:
			if stub.failUpdates {
				w.WriteHeader(http.StatusUnprocessableEntity)
				json.NewEncoder(w).Encode(map[string]interface{}{"message": "status not allowed"})
				return
			}
			stub.updates = append(stub.updates, r.URL.Path)
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			var req struct {
				IDs []string `json:"ids"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			stub.deletes = append(stub.deletes, req.IDs)
			w.WriteHeader(http.StatusOK)
		}
	}))
	return stub
}

func newTestRouter(t *testing.T, stub *upstreamStub) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := platform.NewClient(stub.server.URL, "admin_session", 100, 5*time.Second)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	tables := services.NewTableService(client, cache.NewPageCache(nil, 0), nil, logger, 5*time.Second, 20, 100, 2)

	handler := NewTableHandler(tables)

	router := gin.New()
	api := router.Group("/api/v1/admin")
	api.Use(middleware.TenantMiddleware())
	api.Use(middleware.SessionMiddleware("admin_session"))

	resources := api.Group("/:resource")
	{
		resources.GET("", handler.List)
		resources.DELETE("", handler.BulkDelete)
		resources.POST("/refresh", handler.Refresh)
		resources.POST("/select-all", handler.ToggleSelectAll)
		resources.PATCH("/:id", handler.EditField)
		resources.POST("/:id/select", handler.ToggleSelect)
	}
	return router
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Tenant-ID", "tenant-1")
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListResource(t *testing.T) {
	stub := newUpstreamStub()
	defer stub.server.Close()
	router := newTestRouter(t, stub)

	w := doRequest(router, http.MethodGet, "/api/v1/admin/accounts?page=1&limit=20", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Rows  []map[string]interface{} `json:"rows"`
			Page  int                      `json:"page"`
			Total int64                    `json:"total"`
			State string                   `json:"state"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "READY", resp.Data.State)
	assert.Len(t, resp.Data.Rows, 2)
	assert.Equal(t, int64(2), resp.Data.Total)
}

func TestListUnknownResource(t *testing.T) {
	stub := newUpstreamStub()
	defer stub.server.Close()
	router := newTestRouter(t, stub)

	w := doRequest(router, http.MethodGet, "/api/v1/admin/widgets", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMissingTenantRejected(t *testing.T) {
	stub := newUpstreamStub()
	defer stub.server.Close()
	router := newTestRouter(t, stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/accounts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEditField(t *testing.T) {
	t.Run("editable field is updated upstream", func(t *testing.T) {
		stub := newUpstreamStub()
		defer stub.server.Close()
		router := newTestRouter(t, stub)

		doRequest(router, http.MethodGet, "/api/v1/admin/accounts", nil)

		w := doRequest(router, http.MethodPatch, "/api/v1/admin/accounts/u-1",
			map[string]interface{}{"field": "status", "value": "disabled"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"/api/v1/users/u-1"}, stub.updates)
	})

	t.Run("non-editable field is rejected before going upstream", func(t *testing.T) {
		stub := newUpstreamStub()
		defer stub.server.Close()
		router := newTestRouter(t, stub)

		doRequest(router, http.MethodGet, "/api/v1/admin/accounts", nil)

		w := doRequest(router, http.MethodPatch, "/api/v1/admin/accounts/u-1",
			map[string]interface{}{"field": "email", "value": "evil@x.y"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, stub.updates)
	})

	t.Run("upstream failure rolls back and returns bad gateway", func(t *testing.T) {
		stub := newUpstreamStub()
		defer stub.server.Close()
		router := newTestRouter(t, stub)

		doRequest(router, http.MethodGet, "/api/v1/admin/accounts", nil)

		stub.failUpdates = true
		w := doRequest(router, http.MethodPatch, "/api/v1/admin/accounts/u-1",
			map[string]interface{}{"field": "status", "value": "nope"})
		assert.Equal(t, http.StatusBadGateway, w.Code)

		// The optimistic value was reverted
		view := doRequest(router, http.MethodPost, "/api/v1/admin/accounts/refresh", nil)
		assert.Equal(t, http.StatusOK, view.Code)
		assert.Contains(t, view.Body.String(), `"status":"active"`)
	})
}

func TestBulkDelete(t *testing.T) {
	stub := newUpstreamStub()
	defer stub.server.Close()
	router := newTestRouter(t, stub)

	doRequest(router, http.MethodGet, "/api/v1/admin/accounts", nil)

	w := doRequest(router, http.MethodDelete, "/api/v1/admin/accounts",
		map[string]interface{}{"ids": []string{"u-1", "u-2"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [][]string{{"u-1", "u-2"}}, stub.deletes)

	var resp struct {
		Data struct {
			DeletedCount int `json:"deletedCount"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.DeletedCount)
}

func TestSelection(t *testing.T) {
	stub := newUpstreamStub()
	defer stub.server.Close()
	router := newTestRouter(t, stub)

	doRequest(router, http.MethodGet, "/api/v1/admin/accounts", nil)

	w := doRequest(router, http.MethodPost, "/api/v1/admin/accounts/u-1/select", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u-1")

	w = doRequest(router, http.MethodPost, "/api/v1/admin/accounts/select-all", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Selected []string `json:"selected"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"u-1", "u-2"}, resp.Data.Selected)
}

func TestListUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"gone"}`)
	}))
	defer server.Close()

	stub := &upstreamStub{server: server}
	router := newTestRouter(t, stub)

	w := doRequest(router, http.MethodGet, "/api/v1/admin/accounts", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"ERROR"`)
}
