package server

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRF_PagesCarryToken(t *testing.T) {
	env := newTestEnv(t, "")

	resp := env.get(t, "/auth/login/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := responseCookie(resp, csrfCookie)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, env.redis.Exists(csrfKeyPrefix+cookie.Value), "token is kept in redis")

	_, data := env.views.last()
	assert.Equal(t, cookie.Value, data.CSRFToken)
	assert.Contains(t, readBody(t, resp), `name="csrf_token" value="`+cookie.Value+`"`)

	resp = env.get(t, "/health/live", nil)
	assert.Nil(t, responseCookie(resp, csrfCookie))
}

func TestCSRF_RejectsUnsafeRequests(t *testing.T) {
	env := newTestEnv(t, "")
	leo := env.createUser(t, "leo")
	session := env.login(t, leo)
	valid := env.fetchCSRF(t)

	tests := []struct {
		name    string
		field   string
		cookies []*http.Cookie
	}{
		{"no token", "", []*http.Cookie{session}},
		{"field without cookie", valid.Value, []*http.Cookie{session}},
		{"cookie without field", "", []*http.Cookie{session, valid}},
		{"mismatched pair", "other-token", []*http.Cookie{session, valid}},
		{"forged pair", "forged", []*http.Cookie{session, {Name: csrfCookie, Value: "forged"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"text": {"cross-site post"}}
			if tt.field != "" {
				form.Set(csrfFormField, tt.field)
			}
			resp := env.post(t, "/create/", form, tt.cookies...)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			name, _ := env.views.last()
			assert.Equal(t, "core/403csrf.html", name)
			assert.Zero(t, env.postCount(t))
		})
	}

	t.Run("logout", func(t *testing.T) {
		resp := env.post(t, "/auth/logout/", url.Values{}, session)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp = env.get(t, "/create/", session)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "session survives a forged logout")
	})

	t.Run("valid pair passes", func(t *testing.T) {
		form := url.Values{"text": {"real post"}, csrfFormField: {valid.Value}}
		resp := env.post(t, "/create/", form, session, valid)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.EqualValues(t, 1, env.postCount(t))
	})
}

func TestLogoutPage_DoesNotEndSession(t *testing.T) {
	env := newTestEnv(t, "")
	leo := env.createUser(t, "leo")
	session := env.login(t, leo)

	resp := env.get(t, "/auth/logout/", session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	name, data := env.views.last()
	assert.Equal(t, "users/logout_confirm.html", name)
	assert.NotEmpty(t, data.CSRFToken)
	assert.Nil(t, responseCookie(resp, sessionCookie))

	resp = env.get(t, "/create/", session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/auth/logout/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	name, _ = env.views.last()
	assert.Equal(t, "users/logged_out.html", name)
}
