package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/autocrm-backend/internal/data/repos"
	"github.com/yungbote/autocrm-backend/internal/data/repos/testutil"
	"github.com/yungbote/autocrm-backend/internal/domain/user"
	"github.com/yungbote/autocrm-backend/internal/platform/ctxutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

var testAuth = AuthConfig{Secret: "test-secret", Issuer: "autocrm-test"}

func newAuthRouter(t *testing.T, users repos.UserRepo, guard ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), testAuth, users)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{am.RequireAuth()}, guard...)
	handlers = append(handlers, func(c *gin.Context) {
		id := ctxutil.GetIdentity(c.Request.Context())
		c.String(http.StatusOK, id.Role)
	})
	r.GET("/me", handlers...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sign(t *testing.T, cfg AuthConfig, id ctxutil.Identity, ttl time.Duration) string {
	t.Helper()
	tok, err := SignToken(cfg, id, ttl)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestRequireAuthUpsertsUser(t *testing.T) {
	db := testutil.DB(t)
	users := repos.NewUserRepo(db, logger.Nop())
	r := newAuthRouter(t, users)

	id := ctxutil.Identity{UserID: uuid.New(), Email: "w@example.com", Name: "Wren", Role: "worker"}
	rec := get(r, sign(t, testAuth, id, time.Minute))
	if rec.Code != http.StatusOK || rec.Body.String() != "worker" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	u, err := users.GetByID(testutil.DBC(t), id.UserID)
	if err != nil {
		t.Fatalf("user not upserted: %v", err)
	}
	if u.Email != "w@example.com" || u.Role != user.RoleWorker {
		t.Fatalf("unexpected user %#v", u)
	}
}

func TestRequireAuthDefaultsRoleToCustomer(t *testing.T) {
	r := newAuthRouter(t, nil)
	rec := get(r, sign(t, testAuth, ctxutil.Identity{UserID: uuid.New()}, time.Minute))
	if rec.Code != http.StatusOK || rec.Body.String() != "customer" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequireAuthRejects(t *testing.T) {
	r := newAuthRouter(t, nil)
	good := ctxutil.Identity{UserID: uuid.New(), Role: "admin"}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   good.UserID.String(),
		Issuer:    testAuth.Issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]string{
		"missing":      "",
		"garbage":      "not-a-jwt",
		"expired":      sign(t, testAuth, good, -time.Minute),
		"wrong secret": sign(t, AuthConfig{Secret: "other", Issuer: testAuth.Issuer}, good, time.Minute),
		"wrong issuer": sign(t, AuthConfig{Secret: testAuth.Secret, Issuer: "elsewhere"}, good, time.Minute),
		"bad role":     sign(t, testAuth, ctxutil.Identity{UserID: good.UserID, Role: "root"}, time.Minute),
		"alg none":     unsigned,
	}
	for name, tok := range cases {
		if rec := get(r, tok); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	r := newAuthRouter(t, nil, RequireRole(user.RoleWorker, user.RoleAdmin))
	cust := sign(t, testAuth, ctxutil.Identity{UserID: uuid.New(), Role: "customer"}, time.Minute)
	if rec := get(r, cust); rec.Code != http.StatusForbidden {
		t.Fatalf("customer status = %d, want 403", rec.Code)
	}
	admin := sign(t, testAuth, ctxutil.Identity{UserID: uuid.New(), Role: "admin"}, time.Minute)
	if rec := get(r, admin); rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", rec.Code)
	}
}
