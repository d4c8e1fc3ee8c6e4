package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/autocrm-backend/internal/data/repos"
	"github.com/yungbote/autocrm-backend/internal/domain/user"
	"github.com/yungbote/autocrm-backend/internal/pkg/dbctx"
	"github.com/yungbote/autocrm-backend/internal/platform/ctxutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

// Claims is the access token issued by the identity provider.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
	Leeway   time.Duration
}

type AuthMiddleware struct {
	log    *logger.Logger
	cfg    AuthConfig
	users  repos.UserRepo
	parser *jwt.Parser
}

func NewAuthMiddleware(log *logger.Logger, cfg AuthConfig, users repos.UserRepo) *AuthMiddleware {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &AuthMiddleware{
		log:    log.With("Middleware", "AuthMiddleware"),
		cfg:    cfg,
		users:  users,
		parser: jwt.NewParser(opts...),
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "missing or invalid token", "unauthorized")
			return
		}
		id, err := am.identityFromToken(tokenString)
		if err != nil {
			am.log.Debug("Rejected access token", "error", err)
			abort(c, http.StatusUnauthorized, err.Error(), "unauthorized")
			return
		}
		ctx := ctxutil.WithIdentity(c.Request.Context(), id)
		if am.users != nil {
			role, _ := user.ParseRole(id.Role)
			if _, err := am.users.Upsert(dbctx.New(ctx), &user.User{
				ID:    id.UserID,
				Email: id.Email,
				Name:  id.Name,
				Role:  role,
			}); err != nil {
				am.log.Error("User upsert failed", "user_id", id.UserID, "error", err)
				abort(c, http.StatusInternalServerError, "internal server error", "internal")
				return
			}
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ctxutil.GetIdentity(c.Request.Context())
		if id == nil {
			abort(c, http.StatusUnauthorized, "missing or invalid token", "unauthorized")
			return
		}
		for _, r := range roles {
			if string(r) == id.Role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "forbidden", "forbidden")
	}
}

func (am *AuthMiddleware) identityFromToken(tokenString string) (*ctxutil.Identity, error) {
	claims := &Claims{}
	token, err := am.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(am.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject in token: %w", err)
	}
	role := user.RoleCustomer
	if strings.TrimSpace(claims.Role) != "" {
		r, ok := user.ParseRole(claims.Role)
		if !ok {
			return nil, fmt.Errorf("unknown role %q", claims.Role)
		}
		role = r
	}
	return &ctxutil.Identity{
		UserID: userID,
		Email:  strings.TrimSpace(claims.Email),
		Name:   strings.TrimSpace(claims.Name),
		Role:   string(role),
	}, nil
}

// SignToken issues an HS256 access token; used by the admin CLI and tests.
func SignToken(cfg AuthConfig, id ctxutil.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		Name:  id.Name,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    cfg.Issuer,
		},
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

func abort(c *gin.Context, status int, msg, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"message": msg, "code": code},
	})
}
