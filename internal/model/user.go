package model

// Role 用户角色
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleManager
}

// User 用户模型，邮箱统一小写存储
type User struct {
	BaseModel
	Name         string `gorm:"type:varchar(100);not null" json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email" json:"email"`
	PasswordHash string `gorm:"type:varchar(100);not null" json:"-"` // 不对外暴露
	Role         Role   `gorm:"type:varchar(16);not null;default:'employee';index:idx_users_role" json:"role"`
	EmployeeID   string `gorm:"type:varchar(32);not null;uniqueIndex:idx_users_employee_id" json:"employeeId"`
	Department   string `gorm:"type:varchar(64);not null;default:''" json:"department"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
