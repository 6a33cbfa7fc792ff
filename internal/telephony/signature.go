package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"sort"
	"strings"

	"dental-reception/pkg/logger"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Twilio-Signature"

// SignatureValidator implements Twilio's webhook signing scheme: HMAC-SHA1
// over the full request URL with all POST parameters appended in sorted
// key order, base64 encoded.
// Ref: https://www.twilio.com/docs/usage/security#validating-requests
type SignatureValidator struct {
	token []byte
}

func NewSignatureValidator(authToken string) *SignatureValidator {
	return &SignatureValidator{token: []byte(authToken)}
}

func (v *SignatureValidator) Validate(url string, params map[string]string, signature string) bool {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(url)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}

	mac := hmac.New(sha1.New, v.token)
	mac.Write([]byte(b.String()))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// RequireSignature rejects webhook requests without a valid signature.
// Wire this only onto the Twilio-facing routes.
func RequireSignature(v *SignatureValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromGin(c)

		sig := c.GetHeader(signatureHeader)
		if sig == "" {
			log.Warn("missing webhook signature", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing signature"})
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}
		params := make(map[string]string, len(c.Request.PostForm))
		for k, vals := range c.Request.PostForm {
			if len(vals) > 0 {
				params[k] = vals[0]
			}
		}

		if !v.Validate(requestURL(c.Request), params, sig) {
			log.Warn("invalid webhook signature", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}

// requestURL reconstructs the URL Twilio signed. Behind a proxy the
// forwarded proto wins; Twilio always calls over https in production.
func requestURL(r *http.Request) string {
	scheme := "https"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
