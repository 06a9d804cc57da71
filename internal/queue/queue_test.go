package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AttendTrack/internal/cache"
	"AttendTrack/internal/model"
	"AttendTrack/internal/repository/memory"
	"AttendTrack/internal/service"
	"AttendTrack/pkg/snowflake"
	redisstore "AttendTrack/storage/redis"
)

type recordingPublisher struct {
	exchange, routingKey, messageID string
	body                            interface{}
	err                             error
}

func (p *recordingPublisher) Publish(_ context.Context, exchange, routingKey, messageID string, body interface{}) error {
	p.exchange, p.routingKey, p.messageID, p.body = exchange, routingKey, messageID, body
	return p.err
}

type flakyBackfiller struct {
	calls atomic.Int32
	fail  bool
}

func (f *flakyBackfiller) BackfillAbsent(_ context.Context, date string) (int64, error) {
	f.calls.Add(1)
	if f.fail {
		return 0, stderrors.New("db down")
	}
	return 1, nil
}

func newCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client, redisstore.NewKeyBuilder("test"), time.Hour), mr
}

func messageBody(t *testing.T, date string) []byte {
	t.Helper()
	body, err := json.Marshal(model.BackfillAbsentMessage{MessageID: BackfillMessageID(date), Date: date})
	require.NoError(t, err)
	return body
}

func TestPublishBackfillAbsent(t *testing.T) {
	pub := &recordingPublisher{}
	at := time.Date(2024, 3, 2, 0, 5, 0, 0, time.UTC)

	msg, err := PublishBackfillAbsent(context.Background(), pub, "2024-03-01", at)
	require.NoError(t, err)

	assert.Equal(t, ExchangeAttendance, pub.exchange)
	assert.Equal(t, RoutingBackfillAbsent, pub.routingKey)
	assert.Equal(t, "backfill_absent_2024-03-01", pub.messageID)
	assert.Equal(t, msg, pub.body)
	assert.Equal(t, "2024-03-02T00:05:00Z", msg.ScheduledAt)

	pub.err = stderrors.New("channel closed")
	_, err = PublishBackfillAbsent(context.Background(), pub, "2024-03-01", at)
	assert.Error(t, err)
}

func TestBackfillConsumerCreatesPlaceholdersOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	for i, role := range []model.Role{model.RoleEmployee, model.RoleEmployee, model.RoleManager} {
		require.NoError(t, store.Users().Create(ctx, &model.User{
			BaseModel:  model.BaseModel{ID: int64(i + 1)},
			Email:      string(rune('a'+i)) + "@company.com",
			EmployeeID: string(rune('A' + i)),
			Role:       role,
		}))
	}
	ids, err := snowflake.New(2, 1)
	require.NoError(t, err)
	svc := service.NewAttendanceService(service.AttendanceDeps{
		Records:  store.Attendances(),
		Users:    store.Users(),
		IDs:      ids,
		Location: time.UTC,
		LateHour: 9,
	})
	c, _ := newCache(t)
	consumer := NewBackfillConsumer(svc, c, c)

	require.NoError(t, consumer.Handle(ctx, messageBody(t, "2024-03-01")))
	require.NoError(t, consumer.Handle(ctx, messageBody(t, "2024-03-01")))

	records, err := store.Attendances().ListByDate(ctx, "2024-03-01")
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, model.AttendanceStatusAbsent, r.Status)
		assert.Nil(t, r.CheckInTime)
	}
}

func TestBackfillConsumerSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	backfiller := &flakyBackfiller{}
	consumer := NewBackfillConsumer(backfiller, c, c)

	require.NoError(t, consumer.Handle(ctx, messageBody(t, "2024-03-01")))
	require.NoError(t, consumer.Handle(ctx, messageBody(t, "2024-03-01")))
	assert.Equal(t, int32(1), backfiller.calls.Load())

	val, err := mr.Get("test:message:processed:backfill_absent_2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "completed", val)
}

func TestBackfillConsumerUnmarksOnFailure(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	backfiller := &flakyBackfiller{fail: true}
	consumer := NewBackfillConsumer(backfiller, c, c)

	assert.Error(t, consumer.Handle(ctx, messageBody(t, "2024-03-01")))
	assert.False(t, mr.Exists("test:message:processed:backfill_absent_2024-03-01"))

	// 重投后可以再次处理
	backfiller.fail = false
	require.NoError(t, consumer.Handle(ctx, messageBody(t, "2024-03-01")))
	assert.Equal(t, int32(2), backfiller.calls.Load())
}

func TestBackfillConsumerDropsInvalidMessages(t *testing.T) {
	backfiller := &flakyBackfiller{}
	consumer := NewBackfillConsumer(backfiller, nil, nil)

	assert.NoError(t, consumer.Handle(context.Background(), []byte("{not json")))
	assert.NoError(t, consumer.Handle(context.Background(), []byte(`{"date":"yesterday"}`)))
	assert.Equal(t, int32(0), backfiller.calls.Load())

	assert.NoError(t, consumer.Handle(context.Background(), []byte(`{"date":"2024-03-01"}`)))
	assert.Equal(t, int32(1), backfiller.calls.Load())
}

func TestBackfillDiscardReleasesScheduleLock(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)
	backfiller := &flakyBackfiller{fail: true}
	consumer := NewBackfillConsumer(backfiller, c, c)

	// scheduler 已持有当日锁
	acquired, err := c.TryLock(ctx, BackfillLockKey("2024-03-01"), 25*time.Hour)
	require.NoError(t, err)
	require.True(t, acquired)

	// 首次投递与重投都失败，消息被丢弃
	body := messageBody(t, "2024-03-01")
	require.Error(t, consumer.Handle(ctx, body))
	require.Error(t, consumer.Handle(ctx, body))
	consumer.Discard(ctx, body)

	acquired, err = c.TryLock(ctx, BackfillLockKey("2024-03-01"), 25*time.Hour)
	require.NoError(t, err)
	assert.True(t, acquired, "next scheduler run can republish the date")
}

func TestBackfillDiscardIgnoresInvalidMessages(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)
	consumer := NewBackfillConsumer(&flakyBackfiller{}, c, c)

	acquired, err := c.TryLock(ctx, BackfillLockKey("2024-03-01"), time.Hour)
	require.NoError(t, err)
	require.True(t, acquired)

	consumer.Discard(ctx, []byte("{not json"))
	consumer.Discard(ctx, []byte(`{"date":"yesterday"}`))

	acquired, err = c.TryLock(ctx, BackfillLockKey("2024-03-01"), time.Hour)
	require.NoError(t, err)
	assert.False(t, acquired)
}
