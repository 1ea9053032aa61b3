package portal

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/support-totem125/vcc-totem/internal/model"
)

// tokenClaims is the payload of the bearer token the portal issues at login.
type tokenClaims struct {
	AllyID model.FlexString `json:"commercialAllyId"`
	UserID model.FlexString `json:"id"`
	jwt.RegisteredClaims
}

// decodeToken reads the partner and user ids from the token payload.
//
// The signature is not verified: the signing key belongs to the portal and the
// claims are only used to fill the idAliado query parameter and for logging.
// Nothing in this module makes an authorization decision from them.
func decodeToken(raw string) (allyID, userID string, err error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return "", "", fmt.Errorf("decode auth token: %w", err)
	}
	if claims.AllyID == "" {
		return "", "", fmt.Errorf("auth token carries no commercialAllyId")
	}
	return claims.AllyID.String(), claims.UserID.String(), nil
}
