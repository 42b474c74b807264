package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/embedserver/internal/pkg/errcode"
	"github.com/xxxsen/embedserver/internal/pkg/keyhash"
	"github.com/xxxsen/embedserver/internal/pkg/response"
)

const (
	APIKeyHeader      = "X-Auth-Key"
	verifiedKeyTTL    = 10 * time.Minute
	verifiedKeyMaxLen = 1024
)

type apiKeyAuth struct {
	hashes   []string
	verified *expirable.LRU[string, struct{}]
	match    func(hash, key string) bool
}

// APIKey checks X-Auth-Key against bcrypt hashes. With no hashes configured
// every request passes.
func APIKey(hashes []string) gin.HandlerFunc {
	a := &apiKeyAuth{
		hashes:   hashes,
		verified: expirable.NewLRU[string, struct{}](verifiedKeyMaxLen, nil, verifiedKeyTTL),
		match:    keyhash.Match,
	}
	return a.handle
}

func (a *apiKeyAuth) handle(c *gin.Context) {
	if len(a.hashes) == 0 {
		c.Next()
		return
	}
	key := c.GetHeader(APIKeyHeader)
	if key == "" {
		response.Abort(c, errcode.ErrUnauthorized, "missing api key")
		return
	}
	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])
	if _, ok := a.verified.Get(digest); ok {
		c.Next()
		return
	}
	for _, h := range a.hashes {
		if a.match(h, key) {
			a.verified.Add(digest, struct{}{})
			c.Next()
			return
		}
	}
	logutil.GetLogger(c.Request.Context()).Warn("invalid api key", zap.String("ip", c.ClientIP()))
	response.Abort(c, errcode.ErrUnauthorized, "invalid api key")
}
