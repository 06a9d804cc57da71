package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"AttendTrack/internal/model"
	"AttendTrack/internal/model/dto"
	"AttendTrack/internal/repository"
	"AttendTrack/pkg/errors"
	"AttendTrack/pkg/logger"
	"AttendTrack/pkg/metrics"
	"AttendTrack/pkg/token"
	"AttendTrack/utils"
)

// AuthDeps 认证服务依赖，Tokens 与 Metrics 可为空
type AuthDeps struct {
	Users      UserStore
	Tokens     RefreshTokenStore
	Issuer     *token.Issuer
	IDs        IDGenerator
	Metrics    *metrics.AttendanceMetrics
	BcryptCost int
}

type AuthService struct {
	users      UserStore
	tokens     RefreshTokenStore
	issuer     *token.Issuer
	ids        IDGenerator
	metrics    *metrics.AttendanceMetrics
	bcryptCost int
	// 未知邮箱时也做一次 bcrypt 比对，两种失败耗时一致
	dummyHash string
}

func NewAuthService(d AuthDeps) (*AuthService, error) {
	dummy, err := utils.HashPassword("attendtrack-dummy-password", d.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &AuthService{
		users:      d.Users,
		tokens:     d.Tokens,
		issuer:     d.Issuer,
		ids:        d.IDs,
		metrics:    d.Metrics,
		bcryptCost: d.BcryptCost,
		dummyHash:  dummy,
	}, nil
}

// Register 创建用户并签发令牌，role 缺省为 employee，工号缺省自动生成
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	role := model.Role(req.Role)
	if role == "" {
		role = model.RoleEmployee
	}
	if !role.Valid() {
		return nil, errors.InvalidRequest.WithMessage("Invalid role")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, errors.EmailAlreadyRegistered
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	hash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.ids.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID: %w", err)
	}

	employeeID := strings.TrimSpace(req.EmployeeID)
	if employeeID == "" {
		employeeID = "EMP" + strings.ToUpper(s.ids.NextBase36())
	}

	user := &model.User{
		BaseModel:    model.BaseModel{ID: id},
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		EmployeeID:   employeeID,
		Department:   strings.TrimSpace(req.Department),
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case stderrors.Is(err, repository.ErrDuplicateEmail):
			return nil, errors.EmailAlreadyRegistered
		case stderrors.Is(err, repository.ErrDuplicateEmployeeID):
			return nil, errors.EmployeeIDAlreadyRegistered
		default:
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	s.metrics.RecordRegistration(ctx, string(role))
	logger.Logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(role)),
		zap.String("employee_id", employeeID),
	)

	return s.issue(ctx, user)
}

// Login 未知邮箱与密码错误返回同一个错误
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if !stderrors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to query user: %w", err)
		}
		utils.CheckPassword(s.dummyHash, req.Password)
		s.metrics.RecordLoginFailure(ctx)
		return nil, errors.InvalidCredentials
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		s.metrics.RecordLoginFailure(ctx)
		return nil, errors.InvalidCredentials
	}

	return s.issue(ctx, user)
}

// Refresh 用仍然有效且与存储一致的 refresh token 换取新令牌对
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.issuer.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.RefreshTokenInvalid
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return nil, errors.RefreshTokenInvalid
	}

	if s.tokens != nil {
		ok, err := s.tokens.ValidateRefreshTokenExists(ctx, userID, refreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to check refresh token: %w", err)
		}
		if !ok {
			return nil, errors.RefreshTokenInvalid
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.RefreshTokenInvalid
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	s.metrics.RecordRefresh(ctx)
	return s.issue(ctx, user)
}

// Logout 吊销当前 refresh token，已签发的 access token 自然过期
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if s.tokens == nil {
		return nil
	}
	if err := s.tokens.DeleteRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

// Me 返回调用者信息
func (s *AuthService) Me(ctx context.Context, userID int64) (*dto.UserSnapshot, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.UserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	snapshot := dto.NewUserSnapshot(user)
	return &snapshot, nil
}

func (s *AuthService) issue(ctx context.Context, user *model.User) (*dto.AuthResponse, error) {
	userIDStr := strconv.FormatInt(user.ID, 10)
	pair, err := s.issuer.GenerateTokenPair(userIDStr, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if s.tokens != nil {
		// token 已生成，存储失败只影响后续刷新
		if err := s.tokens.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
			logger.Logger.Warn("Failed to store refresh token",
				zap.String("user_id", userIDStr),
				zap.Error(err),
			)
		}
	}

	return &dto.AuthResponse{
		User: dto.NewUserSnapshot(user),
		Tokens: dto.TokenPair{
			Access:    pair.AccessToken,
			Refresh:   pair.RefreshToken,
			ExpiresIn: pair.ExpiresIn,
		},
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
