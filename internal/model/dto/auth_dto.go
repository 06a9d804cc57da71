package dto

import (
	"strconv"

	"AttendTrack/internal/model"
)

// ========== Auth 相关 DTO ==========

// RegisterRequest 注册请求，role 缺省为 employee
type RegisterRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	Role       string `json:"role" validate:"omitempty,oneof=employee manager"`
	EmployeeID string `json:"employeeId" validate:"omitempty,alphanum,max=32"`
	Department string `json:"department" validate:"omitempty,max=64"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest 刷新令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPair 对外返回的令牌
type TokenPair struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	ExpiresIn int    `json:"expiresIn"`
}

// UserSnapshot 对外暴露的用户信息，不含密码
type UserSnapshot struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       model.Role `json:"role"`
	EmployeeID string     `json:"employeeId"`
	Department string     `json:"department"`
}

// AuthResponse 注册/登录/刷新响应
type AuthResponse struct {
	User   UserSnapshot `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

func NewUserSnapshot(u *model.User) UserSnapshot {
	return UserSnapshot{
		ID:         strconv.FormatInt(u.ID, 10),
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		EmployeeID: u.EmployeeID,
		Department: u.Department,
	}
}
