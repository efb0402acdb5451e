package httpkit

import (
	"errors"
	"strings"

	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	msgMissingToken = "missing token"
	msgInvalidToken = "invalid token"
	msgUnauthorized = "unauthorized"
	msgForbidden    = "forbidden"

	tokenTypeAccess = "access"
)

var (
	errWrongTokenType = errors.New("not an access token")
	errMissingTenant  = errors.New("token has no tenant_id")
)

// accessClaims is the access token payload. Every token is scoped to one tenant.
type accessClaims struct {
	TenantID string   `json:"tenant_id"`
	Roles    []string `json:"roles"`
	Type     string   `json:"type"`
	jwt.RegisteredClaims
}

// caller is the identity resolved from a valid access token.
type caller struct {
	userID   uuid.UUID
	tenantID uuid.UUID
	roles    []string
}

// AuthRequired validates the bearer access token and scopes the request to its
// tenant. The tenant and user are stored on the gin context for handlers and on
// the request context for logging.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		rawToken, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			HandleError(c, apperr.Unauthorized(msgMissingToken))
			return
		}

		who, err := parseAccessToken(parser, rawToken, []byte(cfg.GetJWTAccessSecret()))
		if err != nil {
			HandleError(c, apperr.Wrap(apperr.KindUnauthorized, msgInvalidToken, err))
			return
		}

		c.Set(ContextUserIDKey, who.userID)
		c.Set(ContextTenantIDKey, who.tenantID)
		c.Set(ContextRolesKey, who.roles)
		c.Request = c.Request.WithContext(
			logger.ContextWithCaller(c.Request.Context(), who.tenantID.String(), who.userID.String()),
		)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated caller holds role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIdentity(c).HasRole(role) {
			HandleError(c, apperr.Forbidden(msgForbidden))
			return
		}
		c.Next()
	}
}

func parseAccessToken(parser *jwt.Parser, rawToken string, secret []byte) (caller, error) {
	var claims accessClaims
	if _, err := parser.ParseWithClaims(rawToken, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}); err != nil {
		return caller{}, err
	}

	if claims.Type != tokenTypeAccess {
		return caller{}, errWrongTokenType
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return caller{}, err
	}

	if strings.TrimSpace(claims.TenantID) == "" {
		return caller{}, errMissingTenant
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return caller{}, err
	}

	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}
	return caller{userID: userID, tenantID: tenantID, roles: roles}, nil
}

func extractBearerToken(authHeader string) (string, bool) {
	rawToken, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return "", false
	}
	rawToken = strings.TrimSpace(rawToken)
	return rawToken, rawToken != ""
}
