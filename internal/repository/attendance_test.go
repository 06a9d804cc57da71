package repository

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"AttendTrack/internal/model"
)

// dryRunDB 只生成 SQL，不建立连接
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=attendtrack dbname=attendtrack sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func TestDailyCountsSQL(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []model.DailyCount
		return dailyCounts(tx, model.DateRange{Start: "2024-02-01", End: "2024-03-01"}, 30).Find(&rows)
	})

	assert.Contains(t, sql, `SELECT "date" AS date, COUNT(*) AS count FROM "attendances"`)
	assert.Contains(t, sql, `"date" >= '2024-02-01'`)
	assert.Contains(t, sql, `"date" <= '2024-03-01'`)
	assert.Contains(t, sql, `GROUP BY "date"`)
	assert.Contains(t, sql, `ORDER BY "date" DESC`)
	assert.Contains(t, sql, `LIMIT 30`)
}

func TestDailyCountColumnsMatchAliases(t *testing.T) {
	s, err := schema.Parse(&model.DailyCount{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	for _, column := range []string{"date", "count"} {
		assert.NotNil(t, s.LookUpField(column), column)
	}
}

func TestInsertMissingSQL(t *testing.T) {
	db := dryRunDB(t)
	records := []*model.Attendance{
		{BaseModel: model.BaseModel{ID: 1}, UserID: 10, Date: "2024-03-01", Status: model.AttendanceStatusAbsent},
		{BaseModel: model.BaseModel{ID: 2}, UserID: 11, Date: "2024-03-01", Status: model.AttendanceStatusAbsent},
	}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return insertMissing(tx, records)
	})

	assert.True(t, strings.HasPrefix(sql, `INSERT INTO "attendances"`), sql)
	assert.Contains(t, sql, `ON CONFLICT ("user_id","date") DO NOTHING`)
	assert.NotContains(t, sql, `"users"`)
}

func TestConditionalUpdatesSQL(t *testing.T) {
	db := dryRunDB(t)
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	checkIn := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return fillCheckIn(tx, 7, at, model.AttendanceStatusLate)
	})
	assert.Contains(t, checkIn, `UPDATE "attendances" SET`)
	assert.Contains(t, checkIn, `"status"='late'`)
	assert.Contains(t, checkIn, `WHERE id = 7 AND check_in_time IS NULL`)

	checkOut := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return completeCheckOut(tx, 7, at.Add(8*time.Hour), 8)
	})
	assert.Contains(t, checkOut, `"total_hours"=8`)
	assert.Contains(t, checkOut, `WHERE id = 7 AND check_in_time IS NOT NULL AND check_out_time IS NULL`)
}

func TestListAllOrderMatchesMemoryStore(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []*model.Attendance
		return listAll(tx, model.DateRange{}, 500).Find(&out)
	})

	dateAt := strings.Index(sql, `"date" DESC`)
	tieAt := strings.Index(sql, sameDayOrder)
	require.NotEqual(t, -1, dateAt, sql)
	require.NotEqual(t, -1, tieAt, sql)
	assert.Less(t, dateAt, tieAt)
	assert.Contains(t, sql, `LIMIT 500`)
}
