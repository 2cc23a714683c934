package enums

type Role string

const (
	RoleUser Role = "user"
	RoleDemo Role = "demo"
)
