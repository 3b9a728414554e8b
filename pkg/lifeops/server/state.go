package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
)

func (s *LifeOpsServer) hmacSignature(redirectURI string, timestamp int64) string {
	hash := hmac.New(sha256.New, s.HmacSecret)
	hash.Write([]byte(redirectURI))
	hash.Write([]byte(strconv.FormatInt(timestamp, 10)))
	return fmt.Sprintf("%x", hash.Sum(nil))
}

// GenerateHMAC produces the OAuth2 state parameter.
func (s *LifeOpsServer) GenerateHMAC(redirectURI string, timestamp int64) string {
	// format hash(secret, redirect uri, unix timestamp).unix timestamp
	return fmt.Sprintf("%s.%d", s.hmacSignature(redirectURI, timestamp), timestamp)
}

// CheckHMAC accepts a state produced by GenerateHMAC for the same redirect uri that is not
// older than HmacTTL seconds.
func (s *LifeOpsServer) CheckHMAC(redirectURI, target string) bool {
	parts := strings.Split(target, ".")
	if len(parts) != 2 {
		return false
	}

	mac := parts[0]
	tstr := parts[1]

	timestamp, err := strconv.ParseInt(tstr, 10, 64)
	if err != nil {
		return false
	}
	age := s.now().Unix() - timestamp
	if age < 0 || (s.HmacTTL > 0 && age > s.HmacTTL) {
		return false
	}
	sig := s.hmacSignature(redirectURI, timestamp)
	return hmac.Equal([]byte(sig), []byte(mac))
}
