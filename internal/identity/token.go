package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wisdomcircle/circled/internal/models"
)

// tokens are "<base64url payload>.<base64url hmac-sha256 signature>"
// where the payload is "userID:username:expiryUnix". The username may
// itself contain ':' so the id is read up to the first separator and
// the expiry from the last.

func mintToken(secret []byte, userID int64, username string, expiry time.Time) string {
	payload := fmt.Sprintf("%d:%s:%d", userID, username, expiry.Unix())
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + sign(secret, encoded)
}

func parseToken(secret []byte, token string, now time.Time) (models.Viewer, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return models.Viewer{}, models.AuthError("malformed token")
	}
	if !hmac.Equal([]byte(sign(secret, encoded)), []byte(sig)) {
		return models.Viewer{}, models.AuthError("invalid token signature")
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return models.Viewer{}, models.AuthError("malformed token payload")
	}
	payload := string(raw)
	first := strings.Index(payload, ":")
	last := strings.LastIndex(payload, ":")
	if first < 0 || last <= first {
		return models.Viewer{}, models.AuthError("malformed token payload")
	}
	userID, err := strconv.ParseInt(payload[:first], 10, 64)
	if err != nil {
		return models.Viewer{}, models.AuthError("malformed token payload")
	}
	expiry, err := strconv.ParseInt(payload[last+1:], 10, 64)
	if err != nil {
		return models.Viewer{}, models.AuthError("malformed token payload")
	}
	if now.After(time.Unix(expiry, 0)) {
		return models.Viewer{}, models.AuthError("token expired")
	}

	return models.Viewer{UserID: userID, Username: payload[first+1 : last]}, nil
}

func sign(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
