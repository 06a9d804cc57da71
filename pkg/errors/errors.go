package errors

import (
	stderrors "errors"
)

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// WithMessage 返回同错误码、不同提示信息的副本。
func (d Definition) WithMessage(message string) Definition {
	return Definition{Code: d.Code, Message: message}
}

// Is 按错误码比较，WithMessage 生成的副本仍与原 Definition 匹配。
func (d Definition) Is(target error) bool {
	t, ok := target.(Definition)
	return ok && t.Code == d.Code
}

// 通用错误。
var (
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, please try again later"}
	Internal        = Definition{Code: "INTERNAL_ERROR", Message: "Internal server error"}
)

// 认证相关错误。
var (
	EmailAlreadyRegistered      = Definition{Code: "EMAIL_ALREADY_REGISTERED", Message: "Email already registered"}
	EmployeeIDAlreadyRegistered = Definition{Code: "EMPLOYEE_ID_ALREADY_REGISTERED", Message: "Employee ID already registered"}
	InvalidCredentials          = Definition{Code: "INVALID_CREDENTIALS", Message: "Invalid credentials"}
	Unauthorized                = Definition{Code: "UNAUTHORIZED", Message: "Authentication required"}
	Forbidden                   = Definition{Code: "FORBIDDEN", Message: "Insufficient permissions"}
	RefreshTokenInvalid         = Definition{Code: "REFRESH_TOKEN_INVALID", Message: "Refresh token invalid or expired"}
	InvalidUserID               = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
	UserNotFound                = Definition{Code: "USER_NOT_FOUND", Message: "User not found"}
)

// 考勤模块错误。
var (
	AlreadyCheckedIn    = Definition{Code: "ALREADY_CHECKED_IN", Message: "Already checked in"}
	NotCheckedIn        = Definition{Code: "NOT_CHECKED_IN", Message: "Not checked in"}
	AlreadyCheckedOut   = Definition{Code: "ALREADY_CHECKED_OUT", Message: "Already checked out"}
	InvalidCheckOutTime = Definition{Code: "INVALID_CHECK_OUT_TIME", Message: "Check-out time must be after check-in time"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	InvalidRequest.Code:              InvalidRequest,
	TooManyRequests.Code:             TooManyRequests,
	Internal.Code:                    Internal,
	EmailAlreadyRegistered.Code:      EmailAlreadyRegistered,
	EmployeeIDAlreadyRegistered.Code: EmployeeIDAlreadyRegistered,
	InvalidCredentials.Code:          InvalidCredentials,
	Unauthorized.Code:                Unauthorized,
	Forbidden.Code:                   Forbidden,
	RefreshTokenInvalid.Code:         RefreshTokenInvalid,
	InvalidUserID.Code:               InvalidUserID,
	UserNotFound.Code:                UserNotFound,
	AlreadyCheckedIn.Code:            AlreadyCheckedIn,
	NotCheckedIn.Code:                NotCheckedIn,
	AlreadyCheckedOut.Code:           AlreadyCheckedOut,
	InvalidCheckOutTime.Code:         InvalidCheckOutTime,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// From 从错误链中取出 Definition。
func From(err error) (Definition, bool) {
	var def Definition
	if stderrors.As(err, &def) {
		return def, true
	}
	return Definition{}, false
}
