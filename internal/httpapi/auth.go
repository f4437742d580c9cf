package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Tokens are "valuerID.expiryUnix.hex(hmac-sha256(valuerID.expiryUnix))",
// signed with the server's auth secret. Stateless on purpose: a restart
// does not invalidate sessions.
const tokenTTL = 24 * time.Hour

func signToken(secret []byte, valuerID string, expiry int64) string {
	payload := fmt.Sprintf("%s.%d", valuerID, expiry)
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(payload))
	return payload + "." + hex.EncodeToString(mac.Sum(nil))
}

func (s *Server) issueToken(valuerID string) string {
	return signToken(s.authSecret, valuerID, time.Now().Add(tokenTTL).Unix())
}

// verifyToken returns the valuer ID embedded in a valid, unexpired token.
func (s *Server) verifyToken(token string) (string, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return "", NewUnauthorizedError()
	}
	valuerID := parts[0]
	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || valuerID == "" {
		return "", NewUnauthorizedError()
	}

	expected := signToken(s.authSecret, valuerID, expiry)
	if !hmac.Equal([]byte(expected), []byte(valuerID+"."+parts[1]+"."+parts[2])) {
		return "", NewUnauthorizedError()
	}
	if time.Now().Unix() > expiry {
		return "", NewUnauthorizedError()
	}
	return valuerID, nil
}

// authenticate resolves the bearer token on a request to a valuer ID.
func (s *Server) authenticate(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return "", NewUnauthorizedError()
	}
	return s.verifyToken(strings.TrimPrefix(header, "Bearer "))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
