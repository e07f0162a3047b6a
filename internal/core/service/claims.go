package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
)

// DecodeClaims parses the payload of a JWT without verifying its signature;
// the backend is the verifier. Tokens without a subject or an expiry are
// treated as malformed.
func DecodeClaims(token string) (domain.Claims, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Claims{}, fmt.Errorf("%w: empty token", domain.ErrAuthMalformed)
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return domain.Claims{}, fmt.Errorf("%w: %v", domain.ErrAuthMalformed, err)
	}

	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return domain.Claims{}, fmt.Errorf("%w: missing subject", domain.ErrAuthMalformed)
	}

	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return domain.Claims{}, fmt.Errorf("%w: missing expiry", domain.ErrAuthMalformed)
	}

	claims := domain.Claims{Subject: sub, ExpiresAt: exp.Time}

	switch v := mc["is_admin"].(type) {
	case nil:
	case bool:
		claims.IsAdmin = v
	default:
		return domain.Claims{}, fmt.Errorf("%w: is_admin is %T", domain.ErrAuthMalformed, v)
	}

	// user_id is optional and only kept when it is a whole number.
	switch v := mc["user_id"].(type) {
	case float64:
		if v == math.Trunc(v) {
			id := int64(v)
			claims.UserID = &id
		}
	case string:
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			claims.UserID = &id
		}
	}

	return claims, nil
}

// IdentityFromClaims derives the identity of the credential holder. The
// subject doubles as name and e-mail.
func IdentityFromClaims(c domain.Claims, now time.Time) domain.Identity {
	id := c.Subject
	if c.UserID != nil {
		id = strconv.FormatInt(*c.UserID, 10)
	}
	return domain.Identity{
		ID:        id,
		Name:      c.Subject,
		Email:     c.Subject,
		Role:      domain.RoleFromAdminFlag(c.IsAdmin),
		Avatar:    domain.DefaultAvatar,
		IsActive:  true,
		CreatedAt: now,
	}
}

// withProfile overlays the backend profile on a claims-derived identity.
// The role keeps following the credential's admin flag.
func withProfile(id domain.Identity, p *ports.BackendUser) domain.Identity {
	if p == nil {
		return id
	}
	id.ID = strconv.FormatInt(p.ID, 10)
	if p.Email != "" {
		id.Email = p.Email
	}
	return id
}
