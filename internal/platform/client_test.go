package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, "admin_session", 100, 5*time.Second)
}

func TestClientList(t *testing.T) {
	t.Run("decodes the page envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/users", r.URL.Path)
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			assert.Equal(t, "smith", r.URL.Query().Get("search"))
			assert.Equal(t, "tenant-1", r.Header.Get("X-Tenant-ID"))

			cookie, err := r.Cookie("admin_session")
			assert.NoError(t, err)
			assert.Equal(t, "tok-123", cookie.Value)

			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "ok",
				"data": map[string]interface{}{
					"page":  2,
					"limit": 10,
					"total": 57,
					"data": []map[string]interface{}{
						{"user_id": "u-1", "email": "a@b.c"},
					},
				},
			})
		}))
		defer server.Close()

		envelope, err := newTestClient(server.URL).List(context.Background(), "/api/v1/users",
			ListQuery{Page: 2, Limit: 10, Search: "smith"},
			Credentials{TenantID: "tenant-1", Session: "tok-123"})

		assert.NoError(t, err)
		assert.Equal(t, 2, envelope.Page)
		assert.Equal(t, int64(57), envelope.Total)
		assert.Len(t, envelope.Data, 1)
	})

	t.Run("non-2xx maps to an HTTP error with the server message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   map[string]interface{}{"code": "NOT_FOUND", "message": "no such collection"},
			})
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).List(context.Background(), "/api/v1/users", ListQuery{Page: 1, Limit: 10}, Credentials{})
		assert.Error(t, err)

		var reqErr *RequestError
		assert.ErrorAs(t, err, &reqErr)
		assert.Equal(t, KindHTTP, reqErr.Kind)
		assert.Equal(t, http.StatusNotFound, reqErr.Status)
		assert.Contains(t, reqErr.Error(), "no such collection")
	})

	t.Run("malformed body maps to a parse error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).List(context.Background(), "/api/v1/users", ListQuery{Page: 1, Limit: 10}, Credentials{})

		var reqErr *RequestError
		assert.ErrorAs(t, err, &reqErr)
		assert.Equal(t, KindParse, reqErr.Kind)
	})

	t.Run("connection failure maps to a network error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		_, err := newTestClient(server.URL).List(context.Background(), "/api/v1/users", ListQuery{Page: 1, Limit: 10}, Credentials{})

		var reqErr *RequestError
		assert.ErrorAs(t, err, &reqErr)
		assert.Equal(t, KindNetwork, reqErr.Kind)
	})

	t.Run("retries a 503 and succeeds", func(t *testing.T) {
		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts == 1 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"page": 1, "limit": 10, "total": 0, "data": []interface{}{}},
			})
		}))
		defer server.Close()

		envelope, err := newTestClient(server.URL).List(context.Background(), "/api/v1/users", ListQuery{Page: 1, Limit: 10}, Credentials{})
		assert.NoError(t, err)
		assert.Equal(t, 2, attempts)
		assert.Equal(t, int64(0), envelope.Total)
	})
}

func TestClientUpdate(t *testing.T) {
	t.Run("sends a PUT with the changed fields", func(t *testing.T) {
		var body map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/v1/users/u-1", r.URL.Path)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		err := newTestClient(server.URL).Update(context.Background(), "/api/v1/users", "u-1",
			map[string]interface{}{"status": "disabled"}, Credentials{TenantID: "tenant-1"})

		assert.NoError(t, err)
		assert.Equal(t, "disabled", body["status"])
	})

	t.Run("non-2xx surfaces as an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]interface{}{"message": "invalid status"})
		}))
		defer server.Close()

		err := newTestClient(server.URL).Update(context.Background(), "/api/v1/users", "u-1",
			map[string]interface{}{"status": "nope"}, Credentials{})

		var reqErr *RequestError
		assert.ErrorAs(t, err, &reqErr)
		assert.Equal(t, http.StatusUnprocessableEntity, reqErr.Status)
		assert.Contains(t, reqErr.Error(), "invalid status")
	})
}

func TestClientBulkDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)

		var req struct {
			IDs []string `json:"ids"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.IDs)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := newTestClient(server.URL).BulkDelete(context.Background(), "/api/v1/users", []string{"a", "b"}, Credentials{})
	assert.NoError(t, err)
}
