// file: controllers/test_helpers_test.go
package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"eventlink/services"
	"eventlink/storage"
)

const (
	ucr = "University of California Riverside"
	uci = "University of California Irvine"
)

// testApp is the full handler stack over an in-memory store.
type testApp struct {
	router  *gin.Engine
	store   storage.Store
	tracker *services.RSVPTracker
	ctl     Controllers
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStore()
	users := services.NewUserDirectory(store, false)
	sessionSvc := services.NewSessionService(store, users, []string{ucr, uci})
	catalog := services.NewEventCatalog(store, nil)
	tracker := services.NewRSVPTracker(store, nil, nil)

	ctl := Controllers{
		Auth:    NewAuthController(users, sessionSvc, tracker),
		Events:  NewEventController(catalog, sessionSvc, tracker, "http://localhost:8080"),
		RSVP:    NewRSVPController(tracker, catalog),
		Profile: NewProfileController(sessionSvc, tracker),
	}

	router := gin.New()
	router.Use(sessions.Sessions("testsession", cookie.NewStore([]byte("test-secret"))))
	RegisterRoutes(router, ctl)

	return &testApp{router: router, store: store, tracker: tracker, ctl: ctl}
}

// do sends a JSON request carrying cookies and returns the recorder.
func (a *testApp) do(method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// signUpAndIn registers an account, signs it in and selects a school.
// It returns the session cookies.
func (a *testApp) signUpAndIn(t *testing.T, first, email, school string) []*http.Cookie {
	t.Helper()
	w := a.do("POST", RouteSignUp, gin.H{
		"firstName":       first,
		"lastName":        "Tester",
		"email":           email,
		"password":        "pw123",
		"confirmPassword": "pw123",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do("POST", RouteSignIn, gin.H{"email": email, "password": "pw123"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	if school != "" {
		w = a.do("POST", RouteSchoolSelect, gin.H{"school": school}, cookies)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	return cookies
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// createEvent posts an event and returns its key.
func (a *testApp) createEvent(t *testing.T, cookies []*http.Cookie, title string) string {
	t.Helper()
	w := a.do("POST", RouteCreate, gin.H{"title": title, "about": "About " + title, "address": "Bourns Hall"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	event := decode(t, w)["event"].(map[string]any)
	return event["id"].(string)
}
