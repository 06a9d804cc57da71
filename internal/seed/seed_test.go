package seed

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AttendTrack/internal/model"
	"AttendTrack/internal/repository/memory"
	"AttendTrack/utils"
)

type counter struct{ n atomic.Int64 }

func (c *counter) NextID() (int64, error) { return c.n.Add(1), nil }

func TestUsers(t *testing.T) {
	users := Users("m", "e")
	require.Len(t, users, EmployeeCount+1)

	assert.Equal(t, model.RoleManager, users[0].Role)
	assert.Equal(t, "MGR001", users[0].EmployeeID)
	assert.Equal(t, "employee1@company.com", users[1].Email)
	assert.Equal(t, "EMP101", users[1].EmployeeID)
	assert.Equal(t, "Sales", users[1].Department)
	assert.Equal(t, "Engineering", users[2].Department)
	assert.Equal(t, "EMP110", users[10].EmployeeID)
}

func TestAttendanceFollowsCheckInRules(t *testing.T) {
	employees := []*model.User{{BaseModel: model.BaseModel{ID: 1}}, {BaseModel: model.BaseModel{ID: 2}}}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	records, err := Attendance(employees, start, 60, time.UTC, 9, rand.New(rand.NewSource(7)), &counter{})
	require.NoError(t, err)
	require.Len(t, records, 120)
	assert.Equal(t, "2024-01-01", records[0].Date)
	assert.Equal(t, "2024-02-29", records[119].Date)

	absent := 0
	for _, r := range records {
		if r.Status == model.AttendanceStatusAbsent {
			absent++
			assert.Nil(t, r.CheckInTime)
			continue
		}
		require.NotNil(t, r.CheckInTime)
		require.NotNil(t, r.CheckOutTime)
		assert.True(t, r.CheckOutTime.After(*r.CheckInTime))
		assert.Equal(t, utils.HoursBetween(*r.CheckInTime, *r.CheckOutTime), *r.TotalHours)
		assert.Equal(t, r.Date, utils.DateOf(*r.CheckInTime, time.UTC))
		if r.CheckInTime.Hour() >= 9 {
			assert.Equal(t, model.AttendanceStatusLate, r.Status)
		} else {
			assert.Equal(t, model.AttendanceStatusPresent, r.Status)
		}
	}
	assert.Greater(t, absent, 0)
	assert.Less(t, absent, 40)
}

func TestRunIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ids := &counter{}
	opts := Options{
		Days:       5,
		Now:        time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		Location:   time.UTC,
		LateHour:   9,
		BcryptCost: 4,
		Rand:       rand.New(rand.NewSource(1)),
	}

	res, err := Run(ctx, store.Users(), store.Attendances(), ids, opts)
	require.NoError(t, err)
	assert.Equal(t, EmployeeCount+1, res.Users)
	assert.Equal(t, int64(5*EmployeeCount), res.Records)

	manager, err := store.Users().FindByEmail(ctx, ManagerEmail)
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword(manager.PasswordHash, ManagerPassword))

	res, err = Run(ctx, store.Users(), store.Attendances(), ids, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Users)
	assert.Equal(t, int64(0), res.Records)
}
