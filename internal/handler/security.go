package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/untyped-clothing/orders/internal/domain/auth"
)

const tokenInfoKey = "admin_token_info"

// AdminAuth returns a middleware that authenticates back-office requests via
// a bearer token. The presented token is HMAC-SHA256 hashed with the pepper,
// looked up in the repository, and compared in constant time. Only tokens
// with the admin role pass.
func AdminAuth(tokens auth.Repository, pepper []byte) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(ctx, http.StatusUnauthorized, "missing bearer token")
			return
		}

		mac := hmac.New(sha256.New, pepper)
		mac.Write([]byte(token))
		hash := mac.Sum(nil)

		info, err := tokens.FindByHash(ctx.Request.Context(), hex.EncodeToString(hash))
		if err != nil {
			respondError(ctx, http.StatusUnauthorized, "unauthorized")
			return
		}

		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			respondError(ctx, http.StatusUnauthorized, "unauthorized")
			return
		}

		if info.Role != auth.RoleAdmin {
			respondError(ctx, http.StatusForbidden, "admin role required")
			return
		}

		ctx.Set(tokenInfoKey, info)
		ctx.Next()
	}
}
