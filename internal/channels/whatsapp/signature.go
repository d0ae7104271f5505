package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ValidateSignature checks the X-Hub-Signature-256 header against an
// HMAC-SHA256 of the raw request body keyed by the app secret. The
// comparison is constant-time.
func ValidateSignature(body []byte, header, appSecret string) bool {
	if appSecret == "" {
		return false
	}
	signature := strings.TrimPrefix(header, "sha256=")

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
