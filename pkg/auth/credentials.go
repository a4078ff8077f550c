package auth

import (
	"os"
	"regexp"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	nerrors "github.com/cpop/natscore/pkg/errors"
)

var (
	jwtBlockRE  = regexp.MustCompile(`(?s)-----BEGIN NATS USER JWT-----(.*?)-----END NATS USER JWT-----`)
	seedBlockRE = regexp.MustCompile(`(?s)-----BEGIN USER NKEY SEED-----(.*?)-----END USER NKEY SEED-----`)
)

// ParseCredentialsFile extracts the JWT and seed blocks from a standard
// .creds file, trimming both values. The JWT is additionally parsed
// (unverified — this library has no access to the issuing account's
// signing key) purely to fail fast on a structurally invalid token.
func ParseCredentialsFile(path string) (jwtTok, seed string, err error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return "", "", nerrors.New(nerrors.KindFileNotFound, "credentials file not found: "+path, readErr)
		}
		return "", "", nerrors.New(nerrors.KindReadError, "failed to read credentials file", readErr)
	}
	return ParseCredentials(string(data))
}

// ParseCredentials extracts the JWT and seed blocks from in-memory
// credentials-file content.
func ParseCredentials(content string) (jwtTok, seed string, err error) {
	jm := jwtBlockRE.FindStringSubmatch(content)
	sm := seedBlockRE.FindStringSubmatch(content)
	if jm == nil || sm == nil {
		return "", "", nerrors.New(nerrors.KindInvalidFormat, "credentials file missing JWT or seed block", nil)
	}

	jwtTok = strings.TrimSpace(jm[1])
	seed = strings.TrimSpace(sm[1])

	if _, _, parseErr := jwt.NewParser().ParseUnverified(jwtTok, jwt.MapClaims{}); parseErr != nil {
		return "", "", nerrors.New(nerrors.KindInvalidFormat, "credentials JWT is malformed", parseErr)
	}

	return jwtTok, seed, nil
}
