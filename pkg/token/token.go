package token

import (
	stderrors "errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	IdentityKey = "uid"
	RoleKey     = "role"
	typeKey     = "type"
	typeRefresh = "refresh"
)

var (
	ErrUnexpectedSigningMethod = stderrors.New("unexpected signing method")
	ErrInvalidToken            = stderrors.New("invalid token")
	ErrInvalidTokenType        = stderrors.New("invalid token type")
	ErrUserIDNotFound          = stderrors.New("user id not found in token")
)

// Config 签发参数
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Claims 令牌中携带的身份
type Claims struct {
	UserID string
	Role   string
}

// Pair 一次签发的 access/refresh 令牌
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Issuer 负责签发与校验 HS256 令牌，middleware 使用同一份 access 密钥
type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) *Issuer {
	return &Issuer{cfg: cfg, now: time.Now}
}

// WithClock 替换时钟，测试使用
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) AccessSecret() []byte { return i.cfg.AccessSecret }

func (i *Issuer) AccessTTL() time.Duration { return i.cfg.AccessTTL }

func (i *Issuer) RefreshTTL() time.Duration { return i.cfg.RefreshTTL }

func (i *Issuer) Now() time.Time { return i.now() }

// GenerateTokenPair 生成 access token 和 refresh token
func (i *Issuer) GenerateTokenPair(userID, role string) (Pair, error) {
	now := i.now()
	expiresAt := now.Add(i.cfg.AccessTTL)

	accessClaims := jwtv5.MapClaims{
		IdentityKey: userID,
		RoleKey:     role,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}

	accessToken, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, accessClaims).SignedString(i.cfg.AccessSecret)
	if err != nil {
		return Pair{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	// refresh token 使用独立密钥，不能直接当 access token 使用
	refreshClaims := jwtv5.MapClaims{
		IdentityKey: userID,
		RoleKey:     role,
		typeKey:     typeRefresh,
		"iat":       now.Unix(),
		"exp":       now.Add(i.cfg.RefreshTTL).Unix(),
	}

	refreshToken, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, refreshClaims).SignedString(i.cfg.RefreshSecret)
	if err != nil {
		return Pair{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return Pair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(i.cfg.AccessTTL.Seconds()),
	}, nil
}

// ValidateRefreshToken 验证 refresh token 并返回身份
func (i *Issuer) ValidateRefreshToken(tokenString string) (Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, jwtv5.MapClaims{}, func(token *jwtv5.Token) (interface{}, error) {
		if token.Method != jwtv5.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v, expected HS256", ErrUnexpectedSigningMethod, token.Header["alg"])
		}
		return i.cfg.RefreshSecret, nil
	}, jwtv5.WithTimeFunc(i.now), jwtv5.WithExpirationRequired())
	if err != nil {
		return Claims{}, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwtv5.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	tokenType, ok := claims[typeKey].(string)
	if !ok || tokenType != typeRefresh {
		return Claims{}, ErrInvalidTokenType
	}

	return claimsFromMap(claims)
}

// ClaimsFromMap 解析 middleware 取出的 MapClaims
func ClaimsFromMap(claims map[string]interface{}) (Claims, error) {
	return claimsFromMap(claims)
}

func claimsFromMap(claims map[string]interface{}) (Claims, error) {
	uid, ok := claims[IdentityKey].(string)
	if !ok {
		if uidFloat, ok := claims[IdentityKey].(float64); ok {
			uid = fmt.Sprintf("%.0f", uidFloat)
		} else {
			return Claims{}, ErrUserIDNotFound
		}
	}
	if uid == "" {
		return Claims{}, ErrUserIDNotFound
	}

	role, _ := claims[RoleKey].(string)
	return Claims{UserID: uid, Role: role}, nil
}

// IsRefreshClaims 判断 claims 是否属于 refresh token
func IsRefreshClaims(claims map[string]interface{}) bool {
	t, _ := claims[typeKey].(string)
	return t == typeRefresh
}
