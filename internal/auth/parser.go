package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Parser extracts the author identity from a signed access token. It does
// not check permissions: authorization happens in the calling system and the
// ledger trusts the identity it is handed.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

type claims struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (p *Parser) Parse(tokenString string) (model.Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return model.Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}
	orgID, err := uuid.Parse(c.OrgID)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}

	return model.Principal{
		UserID: userID,
		OrgID:  orgID,
		Role:   c.Role,
	}, nil
}
