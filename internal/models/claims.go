package models

import "github.com/golang-jwt/jwt/v5"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Application permissions
const (
	PermissionWalletRead  = "wallet:read"
	PermissionTopupCreate = "topup:create"
	PermissionRefundQuote = "refund:quote"

	PermissionReadAdmin    = "admin:read"
	PermissionWriteAdmin   = "admin:write"
	PermissionWalletAdjust = "wallet:adjust"
	PermissionTopupReview  = "topup:review"
	PermissionRefundSettle = "refund:settle"
)

type UserClaims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (c *UserClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionWalletRead,
			PermissionTopupCreate,
			PermissionRefundQuote,
			PermissionReadAdmin,
			PermissionWriteAdmin,
			PermissionWalletAdjust,
			PermissionTopupReview,
			PermissionRefundSettle,
		}
	case RoleUser:
		return []string{
			PermissionWalletRead,
			PermissionTopupCreate,
			PermissionRefundQuote,
		}
	default:
		return []string{}
	}
}
