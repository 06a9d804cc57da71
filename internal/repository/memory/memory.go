// Package memory 提供与 gorm 实现语义一致的内存存储，供测试和本地调试使用。
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"AttendTrack/internal/model"
	"AttendTrack/internal/repository"
)

// Store 同时实现用户与考勤存储，共用一把锁以便 ListAll 关联用户
type Store struct {
	mu          sync.RWMutex
	users       map[int64]*model.User
	attendances map[int64]*model.Attendance
	byUserDate  map[string]int64
}

func New() *Store {
	return &Store{
		users:       make(map[int64]*model.User),
		attendances: make(map[int64]*model.Attendance),
		byUserDate:  make(map[string]int64),
	}
}

// Users 返回用户存储视图
func (s *Store) Users() *Users { return &Users{s: s} }

// Attendances 返回考勤存储视图
func (s *Store) Attendances() *Attendances { return &Attendances{s: s} }

func dayKey(userID int64, date string) string {
	return strconv.FormatInt(userID, 10) + "|" + date
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

func cloneAttendance(a *model.Attendance) *model.Attendance {
	c := *a
	if a.CheckInTime != nil {
		t := *a.CheckInTime
		c.CheckInTime = &t
	}
	if a.CheckOutTime != nil {
		t := *a.CheckOutTime
		c.CheckOutTime = &t
	}
	if a.TotalHours != nil {
		h := *a.TotalHours
		c.TotalHours = &h
	}
	c.User = nil
	return &c
}

// Users 内存用户存储
type Users struct {
	s *Store
}

func (u *Users) Create(_ context.Context, user *model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, existing := range u.s.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if existing.EmployeeID == user.EmployeeID {
			return repository.ErrDuplicateEmployeeID
		}
	}
	if _, ok := u.s.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt
	u.s.users[user.ID] = cloneUser(user)
	return nil
}

func (u *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, existing := range u.s.users {
		if existing.Email == email {
			return cloneUser(existing), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u *Users) FindByID(_ context.Context, id int64) (*model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	if existing, ok := u.s.users[id]; ok {
		return cloneUser(existing), nil
	}
	return nil, repository.ErrNotFound
}

func (u *Users) CountByRole(_ context.Context, role model.Role) (int64, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	var n int64
	for _, existing := range u.s.users {
		if existing.Role == role {
			n++
		}
	}
	return n, nil
}

func (u *Users) ListIDsByRole(_ context.Context, role model.Role) ([]int64, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	ids := make([]int64, 0)
	for id, existing := range u.s.users {
		if existing.Role == role {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Attendances 内存考勤存储
type Attendances struct {
	s *Store
}

func (a *Attendances) Create(_ context.Context, record *model.Attendance) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return a.insertLocked(record)
}

func (a *Attendances) insertLocked(record *model.Attendance) error {
	key := dayKey(record.UserID, record.Date)
	if _, ok := a.s.byUserDate[key]; ok {
		return repository.ErrDuplicateAttendance
	}
	if _, ok := a.s.attendances[record.ID]; ok {
		return repository.ErrDuplicate
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	record.UpdatedAt = record.CreatedAt
	a.s.attendances[record.ID] = cloneAttendance(record)
	a.s.byUserDate[key] = record.ID
	return nil
}

func (a *Attendances) FindByUserAndDate(_ context.Context, userID int64, date string) (*model.Attendance, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	id, ok := a.s.byUserDate[dayKey(userID, date)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneAttendance(a.s.attendances[id]), nil
}

func (a *Attendances) FillCheckIn(_ context.Context, id int64, at time.Time, status model.AttendanceStatus) (bool, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	record, ok := a.s.attendances[id]
	if !ok || record.CheckInTime != nil {
		return false, nil
	}
	record.CheckInTime = &at
	record.Status = status
	record.UpdatedAt = time.Now()
	return true, nil
}

func (a *Attendances) CompleteCheckOut(_ context.Context, id int64, at time.Time, totalHours float64) (bool, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	record, ok := a.s.attendances[id]
	if !ok || record.CheckInTime == nil || record.CheckOutTime != nil {
		return false, nil
	}
	record.CheckOutTime = &at
	record.TotalHours = &totalHours
	record.UpdatedAt = time.Now()
	return true, nil
}

func (a *Attendances) ListByUser(_ context.Context, userID int64, dates model.DateRange, limit int) ([]*model.Attendance, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	return a.collectLocked(func(r *model.Attendance) bool {
		return r.UserID == userID && dates.Contains(r.Date)
	}, limit, false), nil
}

func (a *Attendances) ListAll(_ context.Context, dates model.DateRange, limit int) ([]*model.Attendance, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	return a.collectLocked(func(r *model.Attendance) bool {
		return dates.Contains(r.Date)
	}, limit, true), nil
}

func (a *Attendances) ListByDate(_ context.Context, date string) ([]*model.Attendance, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	out := a.collectLocked(func(r *model.Attendance) bool {
		return r.Date == date
	}, 0, true)
	sort.SliceStable(out, func(i, j int) bool {
		return checkInBefore(out[i], out[j])
	})
	return out, nil
}

func (a *Attendances) DailyCounts(_ context.Context, dates model.DateRange, limit int) ([]model.DailyCount, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, r := range a.s.attendances {
		if dates.Contains(r.Date) {
			counts[r.Date]++
		}
	}

	rows := make([]model.DailyCount, 0, len(counts))
	for date, n := range counts {
		rows = append(rows, model.DailyCount{Date: date, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (a *Attendances) CountAttendedOn(_ context.Context, date string) (int64, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	var n int64
	for _, r := range a.s.attendances {
		if r.Date == date && r.Status != model.AttendanceStatusAbsent {
			n++
		}
	}
	return n, nil
}

func (a *Attendances) CreateMissing(_ context.Context, records []*model.Attendance) (int64, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	var inserted int64
	for _, record := range records {
		if err := a.insertLocked(record); err != nil {
			if err == repository.ErrDuplicateAttendance {
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// collectLocked 调用方需持有读锁
func (a *Attendances) collectLocked(match func(*model.Attendance) bool, limit int, withUser bool) []*model.Attendance {
	out := make([]*model.Attendance, 0)
	for _, r := range a.s.attendances {
		if !match(r) {
			continue
		}
		c := cloneAttendance(r)
		if withUser {
			if u, ok := a.s.users[r.UserID]; ok {
				c.User = cloneUser(u)
			}
		}
		out = append(out, c)
	}

	// 与 gorm 实现一致：date DESC, created_at DESC, id DESC
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// checkInBefore check_in_time ASC NULLS LAST, id ASC
func checkInBefore(a, b *model.Attendance) bool {
	switch {
	case a.CheckInTime == nil && b.CheckInTime == nil:
		return a.ID < b.ID
	case a.CheckInTime == nil:
		return false
	case b.CheckInTime == nil:
		return true
	case !a.CheckInTime.Equal(*b.CheckInTime):
		return a.CheckInTime.Before(*b.CheckInTime)
	default:
		return a.ID < b.ID
	}
}
