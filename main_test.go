// main_test.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlink/config"
	"eventlink/services"
	"eventlink/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:            "test",
		ApplicationURL: "http://localhost:8080",
		StorageDriver:  "memory",
		SessionSecret:  "test-secret",
		Schools:        []string{config.DefaultSchool},
	}
}

// TestHealthEndpoint tests the /health endpoint.
func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := setupRouter(testConfig(), storage.NewMemoryStore(), services.NoopMetrics{})

	req, _ := http.NewRequest("GET", "/health", nil)
	resp := httptest.NewRecorder()
	a.router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "OK", resp.Body.String())
	assert.Equal(t, "DENY", resp.Header().Get("X-Frame-Options"))
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := setupRouter(testConfig(), storage.NewMemoryStore(), services.NoopMetrics{})

	for _, path := range []string{"/home", "/profile", "/saved", "/ws?key=e1"} {
		req, _ := http.NewRequest("GET", path, nil)
		resp := httptest.NewRecorder()
		a.router.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
}

// client is a browser-like client with a cookie jar.
type client struct {
	t    *testing.T
	base *url.URL
	http *http.Client
}

func (c *client) post(path, body string) map[string]any {
	c.t.Helper()
	resp, err := c.http.Post(c.base.String()+path, "application/json", bytes.NewBufferString(body))
	require.NoError(c.t, err)
	defer resp.Body.Close()
	require.Less(c.t, resp.StatusCode, 300, path)

	var out map[string]any
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func readAttendeesMessage(t *testing.T, conn *gws.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

// An RSVP made over HTTP reaches a client watching the event's attendee list.
func TestLiveAttendeeUpdates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := setupRouter(testConfig(), storage.NewMemoryStore(), services.NoopMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.hub.HandleMessages(ctx)

	server := httptest.NewServer(a.router)
	defer server.Close()

	base, _ := url.Parse(server.URL)
	jar, _ := cookiejar.New(nil)
	c := &client{t: t, base: base, http: &http.Client{Jar: jar}}

	c.post("/sign-up", `{"firstName":"Jane","lastName":"Doe","email":"jane@x.edu","password":"pw123","confirmPassword":"pw123"}`)
	c.post("/sign-in", `{"email":"jane@x.edu","password":"pw123"}`)
	c.post("/school-select", `{"school":"`+config.DefaultSchool+`"}`)
	event := c.post("/create", `{"title":"Fall Mixer","about":"Music","address":"HUB 302"}`)["event"].(map[string]any)
	key := event["id"].(string)

	header := http.Header{}
	for _, ck := range jar.Cookies(base) {
		header.Add("Cookie", ck.String())
	}
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?key=" + url.QueryEscape(key)
	conn, resp, err := gws.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	snapshot := readAttendeesMessage(t, conn)
	assert.Equal(t, "attendeesChanged", snapshot["action"])
	assert.Equal(t, float64(0), snapshot["count"])

	c.post("/rsvp", `{"key":"`+key+`"}`)

	update := readAttendeesMessage(t, conn)
	assert.Equal(t, key, update["eventKey"])
	assert.Equal(t, float64(1), update["count"])
	attendee := update["attendees"].([]any)[0].(map[string]any)
	assert.Equal(t, "Jane Doe", attendee["name"])
}
