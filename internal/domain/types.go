package domain

// RequestContext carries authenticated admin info when available.
type RequestContext struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// RoleAdmin is the only role issued by the admin login.
const RoleAdmin = "admin"
