package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/api/http/authctx"
	"github.com/authgate/authgate/internal/mocks"
	"github.com/authgate/authgate/internal/model"
	"github.com/authgate/authgate/internal/service"
	"github.com/authgate/authgate/internal/testutil"
	"github.com/authgate/authgate/internal/token"
)

const (
	testAccessHeader  = "Authorization"
	testRefreshHeader = "Authorization-Refresh"
)

func testCodec() model.TokenCodec {
	return token.NewJWT(token.Config{
		Secret:      "secret",
		AccessTTL:   30 * time.Minute,
		RotationTTL: 24 * time.Hour,
	})
}

func expiredCodec() model.TokenCodec {
	return token.NewJWT(token.Config{
		Secret:      "secret",
		AccessTTL:   -time.Minute,
		RotationTTL: -time.Minute,
	})
}

// probe records whether the request reached the downstream handler and with
// which identity.
type probe struct {
	delegated bool
	identity  *authctx.Identity
}

func (p *probe) handler(c *gin.Context) {
	p.delegated = true
	if identity, ok := authctx.FromContext(c.Request.Context()); ok {
		p.identity = &identity
	}
	c.Status(http.StatusOK)
}

func newTestEngine(t *testing.T, codec model.TokenCodec, store model.AccountStore, rotator CredentialRotator) (*gin.Engine, *probe) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := NewAuthenticate(codec, store, rotator, Config{
		AccessHeader:  testAccessHeader,
		RefreshHeader: testRefreshHeader,
		ExemptPaths:   []string{"/healthz", "/login/*"},
	}, testutil.MakeNoopLogger())

	p := &probe{}
	engine := gin.New()
	engine.Use(m.Handler())
	engine.GET("/healthz", p.handler)
	engine.POST("/login/callback/google", p.handler)
	engine.GET("/resource", p.handler)
	return engine, p
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_ExemptPath_NoClassification(t *testing.T) {
	codec := &mocks.TokenCodec{}
	store := &mocks.AccountStore{}
	engine, p := newTestEngine(t, codec, store, nil)

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, p.delegated)
	codec.AssertNotCalled(t, "ValidateRotationToken", mock.Anything)
	codec.AssertNotCalled(t, "ParseAccessToken", mock.Anything)
}

func TestAuthenticate_ExemptPath_Wildcard(t *testing.T) {
	codec := &mocks.TokenCodec{}
	store := &mocks.AccountStore{}
	engine, p := newTestEngine(t, codec, store, nil)

	req := httptest.NewRequest(http.MethodPost, "/login/callback/google", strings.NewReader("{}"))
	w := serve(engine, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, p.delegated)
	codec.AssertNotCalled(t, "ValidateRotationToken", mock.Anything)
}

func TestAuthenticate_NoHeaders_Anonymous(t *testing.T) {
	store := &mocks.AccountStore{}
	engine, p := newTestEngine(t, testCodec(), store, nil)

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/resource", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, p.delegated)
	assert.Nil(t, p.identity)
}

func TestAuthenticate_ExpiredAccessToken_Anonymous(t *testing.T) {
	store := &mocks.AccountStore{}
	engine, p := newTestEngine(t, testCodec(), store, nil)

	expired, err := expiredCodec().IssueAccessToken(model.Account{ID: uuid.New(), Email: "a@x.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set(testAccessHeader, "Bearer "+expired)
	w := serve(engine, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, p.delegated)
	assert.Nil(t, p.identity)
	assert.Empty(t, w.Header().Get(testAccessHeader))
	assert.Empty(t, w.Header().Get(testRefreshHeader))
	store.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestAuthenticate_ValidAccessToken_Authenticated(t *testing.T) {
	codec := testCodec()
	account := model.Account{ID: uuid.New(), Email: "a@x.com", DisplayName: "A"}

	store := &mocks.AccountStore{}
	store.On("GetByEmail", mock.Anything, "a@x.com").Return(account, nil).Once()

	engine, p := newTestEngine(t, codec, store, nil)

	access, err := codec.IssueAccessToken(account)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set(testAccessHeader, "Bearer "+access)
	w := serve(engine, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, p.identity)
	assert.Equal(t, account.ID, p.identity.AccountID)
	assert.Equal(t, "a@x.com", p.identity.Email)
}

func TestAuthenticate_ValidAccessToken_AccountGone_Anonymous(t *testing.T) {
	codec := testCodec()
	store := &mocks.AccountStore{}
	store.On("GetByEmail", mock.Anything, "a@x.com").Return(model.Account{}, model.ErrNotFound).Once()

	engine, p := newTestEngine(t, codec, store, nil)

	access, err := codec.IssueAccessToken(model.Account{ID: uuid.New(), Email: "a@x.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set(testAccessHeader, "Bearer "+access)
	w := serve(engine, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, p.delegated)
	assert.Nil(t, p.identity)
}

func TestAuthenticate_MissingBearerPrefix_TreatedAbsent(t *testing.T) {
	codec := testCodec()
	store := &mocks.AccountStore{}
	engine, p := newTestEngine(t, codec, store, nil)

	access, err := codec.IssueAccessToken(model.Account{ID: uuid.New(), Email: "a@x.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set(testAccessHeader, access) // no "Bearer " prefix
	w := serve(engine, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, p.identity)
	store.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestAuthenticate_ValidRotationToken_RotatesAndStaysAnonymous(t *testing.T) {
	codec := testCodec()
	account := model.Account{ID: uuid.New(), Email: "a@x.com"}

	rotation, err := codec.IssueRotationToken()
	require.NoError(t, err)

	store := &mocks.AccountStore{}
	store.On("ReplaceRotationCredential", mock.Anything, rotation, mock.Anything).Return(account, nil).Once()

	issuer := service.NewCredentialIssuer(codec, store, testutil.MakeNoopLogger())
	engine, p := newTestEngine(t, codec, store, issuer)

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set(testRefreshHeader, "Bearer "+rotation)
	w := serve(engine, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, p.delegated)
	// rotation never authenticates the current request
	assert.Nil(t, p.identity)

	newAccess := w.Header().Get(testAccessHeader)
	newRotation := w.Header().Get(testRefreshHeader)
	require.True(t, strings.HasPrefix(newAccess, "Bearer "))
	require.True(t, strings.HasPrefix(newRotation, "Bearer "))
	assert.NotEqual(t, "Bearer "+rotation, newRotation)

	claims, err := codec.ParseAccessToken(strings.TrimPrefix(newAccess, "Bearer "))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	store.AssertExpectations(t)
}

func TestAuthenticate_StaleRotationToken_FailsOpenToAnonymous(t *testing.T) {
	codec := testCodec()

	rotation, err := codec.IssueRotationToken()
	require.NoError(t, err)

	store := &mocks.AccountStore{}
	store.On("ReplaceRotationCredential", mock.Anything, rotation, mock.Anything).Return(model.Account{}, model.ErrNotFound).Once()

	issuer := service.NewCredentialIssuer(codec, store, testutil.MakeNoopLogger())
	engine, p := newTestEngine(t, codec, store, issuer)

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set(testRefreshHeader, "Bearer "+rotation)
	w := serve(engine, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, p.delegated)
	assert.Nil(t, p.identity)
	assert.Empty(t, w.Header().Get(testAccessHeader))
}

func TestAuthenticate_GarbageRotationHeader_FallsThroughToAccess(t *testing.T) {
	codec := testCodec()
	account := model.Account{ID: uuid.New(), Email: "a@x.com"}

	store := &mocks.AccountStore{}
	store.On("GetByEmail", mock.Anything, "a@x.com").Return(account, nil).Once()

	engine, p := newTestEngine(t, codec, store, nil)

	access, err := codec.IssueAccessToken(account)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set(testRefreshHeader, "Bearer garbage")
	req.Header.Set(testAccessHeader, "Bearer "+access)
	w := serve(engine, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, p.identity)
	assert.Equal(t, account.ID, p.identity.AccountID)
	store.AssertNotCalled(t, "ReplaceRotationCredential", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequireAuthenticated_DeniesAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.GET("/protected", RequireAuthenticated(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"message":"authentication required"}`, w.Body.String())
}

func TestRequireAuthenticated_PassesAuthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		ctx := authctx.WithIdentity(c.Request.Context(), authctx.Identity{AccountID: uuid.New()})
		c.Request = c.Request.WithContext(ctx)
	})
	engine.GET("/protected", RequireAuthenticated(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
