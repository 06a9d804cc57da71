package service

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"AttendTrack/internal/model"
	"AttendTrack/internal/repository"
	"AttendTrack/internal/repository/memory"
	"AttendTrack/pkg/token"
)

type seqIDs struct {
	n atomic.Int64
}

func (g *seqIDs) NextID() (int64, error) {
	return g.n.Add(1) + 1000, nil
}

func (g *seqIDs) NextBase36() string {
	return strconv.FormatInt(g.n.Add(1)+1000, 36)
}

// testClock 可前进的固定时钟
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memTokens 内存 refresh token 存储
type memTokens struct {
	mu     sync.Mutex
	tokens map[int64]string
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: make(map[int64]string)}
}

func (m *memTokens) SetRefreshToken(_ context.Context, userID int64, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = refreshToken
	return nil
}

func (m *memTokens) ValidateRefreshTokenExists(_ context.Context, userID int64, refreshToken string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tokens[userID]
	return ok && stored == refreshToken, nil
}

func (m *memTokens) DeleteRefreshToken(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, userID)
	return nil
}

// racingRecords 第一次查询时模拟另一个请求抢先写入当天记录
type racingRecords struct {
	*memory.Attendances
	competitor *model.Attendance
	raced      bool
}

func (r *racingRecords) FindByUserAndDate(ctx context.Context, userID int64, date string) (*model.Attendance, error) {
	if !r.raced {
		r.raced = true
		competitor := *r.competitor
		competitor.UserID = userID
		competitor.Date = date
		if err := r.Attendances.Create(ctx, &competitor); err != nil {
			return nil, err
		}
		return nil, repository.ErrNotFound
	}
	return r.Attendances.FindByUserAndDate(ctx, userID, date)
}

func newTestIssuer(clock *testClock) *token.Issuer {
	return token.NewIssuer(token.Config{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}).WithClock(clock.Now)
}

func seedUser(store *memory.Store, id int64, name, email string, role model.Role) *model.User {
	u := &model.User{
		BaseModel:    model.BaseModel{ID: id},
		Name:         name,
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		EmployeeID:   "E" + strconv.FormatInt(id, 10),
	}
	if err := store.Users().Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func hoursPtr(h float64) *float64 { return &h }

func timePtr(t time.Time) *time.Time { return &t }
