// Package auth turns verified JWT claims into the explicit Actor that every
// service operation receives. Token issuance lives outside this service.
package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/ids"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID ids.UserID
	Role   Role
}

func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsVendor() bool { return a.Role == RoleVendor }

// VendorID is the vendor identity of a vendor account. Vendors are users, so
// the ids coincide.
func (a Actor) VendorID() ids.VendorID { return ids.VendorID(a.UserID) }

const localsKey = "user"

// ActorFromCtx reads the actor out of the token stored by the JWT middleware.
// A token without a role claim is treated as a buyer.
func ActorFromCtx(c *fiber.Ctx) (Actor, error) {
	tok, ok := c.Locals(localsKey).(*jwt.Token)
	if !ok || tok == nil {
		return Actor{}, apperr.Unauthorized("missing or invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Actor{}, apperr.Unauthorized("missing or invalid token")
	}

	uid, ok := userIDClaim(claims["user_id"])
	if !ok || uid <= 0 {
		return Actor{}, apperr.Unauthorized("token has no user id")
	}

	role := RoleBuyer
	if raw, ok := claims["role"].(string); ok && raw != "" {
		role = Role(raw)
	}
	if !role.Valid() {
		return Actor{}, apperr.Unauthorized("unknown role %q", role)
	}

	return Actor{UserID: ids.UserID(uid), Role: role}, nil
}

func userIDClaim(raw any) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
