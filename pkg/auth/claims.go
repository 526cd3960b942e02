package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/targolabs/targo-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	Role      enums.ActorRole
	KYCStatus *enums.KYCStatus
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients. Sellers and
// buyers share one account model, so the role claim drives authorization.
type AccessTokenClaims struct {
	UserID    uuid.UUID        `json:"user_id"`
	Role      enums.ActorRole  `json:"role"`
	KYCStatus *enums.KYCStatus `json:"kyc_status,omitempty"`
	jwt.RegisteredClaims
}
