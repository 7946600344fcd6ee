package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fable_ai/story"
)

func newManager() *Manager {
	return NewManager(func() *story.Orchestrator { return story.NewDisabled(zerolog.Nop()) })
}

func TestSessionCreatesCookie(t *testing.T) {
	m := newManager()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	o := m.Session(w, r)
	require.NotNil(t, o)
	assert.Equal(t, 1, m.Len())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestSessionReusesOrchestrator(t *testing.T) {
	m := newManager()
	w := httptest.NewRecorder()
	first := m.Session(w, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := w.Result().Cookies()[0]

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	second := m.Session(httptest.NewRecorder(), r)

	assert.Same(t, first, second)
	assert.Equal(t, 1, m.Len())
}

func TestSessionUnknownCookieGetsFreshSession(t *testing.T) {
	m := newManager()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: cookieName, Value: "stale-id"})

	w := httptest.NewRecorder()
	o := m.Session(w, r)
	require.NotNil(t, o)
	assert.Equal(t, 1, m.Len())
	// A replacement cookie is issued.
	require.Len(t, w.Result().Cookies(), 1)
	assert.NotEqual(t, "stale-id", w.Result().Cookies()[0].Value)
}
