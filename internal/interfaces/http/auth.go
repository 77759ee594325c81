package httpinterface

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/thanhpk/randstr"
)

const (
	// AuthSecretFile is the name of the file holding the key used to sign
	// the auth tokens of the control interface.
	AuthSecretFile = "auth.secret"
	// AuthTokenFile is the name of the file holding the token used by the
	// CLI to access the control interface.
	AuthTokenFile = "auth.token"

	authSecretLen = 32
	authIssuer    = "mpursed"
)

// loadOrCreateAuthSecret returns the secret stored in datadir, if any,
// otherwise it generates and stores a new one.
func loadOrCreateAuthSecret(datadir string) ([]byte, error) {
	secretPath := filepath.Join(datadir, AuthSecretFile)
	if pathExists(secretPath) {
		secret, err := os.ReadFile(secretPath)
		if err != nil {
			return nil, err
		}
		secret = []byte(strings.TrimSpace(string(secret)))
		if len(secret) <= 0 {
			return nil, fmt.Errorf("%s must not be empty", secretPath)
		}
		return secret, nil
	}

	secret := []byte(randstr.String(authSecretLen))
	if err := os.WriteFile(secretPath, secret, 0600); err != nil {
		return nil, err
	}
	return secret, nil
}

// writeAuthToken signs a new token with the given secret and stores it in
// datadir.
func writeAuthToken(datadir string, secret []byte) error {
	token, err := newAuthToken(secret)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(datadir, AuthTokenFile), []byte(token), 0600)
}

func newAuthToken(secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Issuer:   authIssuer,
		IssuedAt: time.Now().Unix(),
	})
	return token.SignedString(secret)
}

func validateAuthToken(tokenString string, secret []byte) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return ErrUnauthorized
	}
	return nil
}

// authMiddleware rejects requests without a valid bearer token. Websocket
// clients that can't set headers may pass the token as query param.
func authMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Method == http.MethodOptions {
				next.ServeHTTP(w, req)
				return
			}

			token := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
			if token == "" {
				token = req.URL.Query().Get("token")
			}
			if token == "" || validateAuthToken(token, secret) != nil {
				writeError(w, ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
