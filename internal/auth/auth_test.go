package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinmov/atlas-server/internal/models"
)

const testCookie = "pinmov_session"

func requestWithCookie(value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/report", nil)
	if value != "" {
		r.AddCookie(&http.Cookie{Name: testCookie, Value: value})
	}
	return r
}

func TestResolveIdentityRoundTrip(t *testing.T) {
	t.Parallel()

	guard := NewGuard(testCookie, "test-secret")
	want := models.Identity{ID: uuid.New(), Email: "ada@example.com", Name: "Ada"}

	token, err := guard.IssueSession(want)
	require.NoError(t, err)

	got, ok := guard.ResolveIdentity(requestWithCookie(token))
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestResolveIdentityAbsentCookie(t *testing.T) {
	t.Parallel()

	guard := NewGuard(testCookie, "test-secret")

	_, ok := guard.ResolveIdentity(requestWithCookie(""))
	assert.False(t, ok)
}

func TestResolveIdentityWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewGuard(testCookie, "issuer-secret")
	guard := NewGuard(testCookie, "other-secret")

	token, err := issuer.IssueSession(models.Identity{ID: uuid.New()})
	require.NoError(t, err)

	_, ok := guard.ResolveIdentity(requestWithCookie(token))
	assert.False(t, ok)
}

func TestResolveIdentityGarbageToken(t *testing.T) {
	t.Parallel()

	guard := NewGuard(testCookie, "test-secret")

	_, ok := guard.ResolveIdentity(requestWithCookie("not.a.jwt"))
	assert.False(t, ok)
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	identity := models.Identity{ID: uuid.New(), Email: "ada@example.com"}
	ctx := WithIdentity(httptest.NewRequest(http.MethodGet, "/", nil).Context(), identity)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, identity, got)

	_, ok = FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
