package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/identity-service/internal/domain/entity"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "user:profile:42", Key("42"))
	assert.Equal(t, "user:tombstone:42", TombstoneKey("42"))
}

func TestRecordKeepsOptionalFields(t *testing.T) {
	now := entity.Now()
	phone := "+15550100"
	dob := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
	u := entity.NewUser("alice", "alice@x.io", "digest", "Alice", "Smith", now)
	u.ID = "id-1"
	u.PhoneNumber = &phone
	u.DateOfBirth = &dob
	u.AccountStatus = entity.StatusSuspended

	b, err := json.Marshal(fromEntity(u))
	require.NoError(t, err)
	var rec record
	require.NoError(t, json.Unmarshal(b, &rec))

	got := rec.toEntity()
	assert.Equal(t, u, got)
	assert.NotSame(t, u.PhoneNumber, got.PhoneNumber)
}

func TestInvalidateLeavesTombstoneFirst(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewUserCache(db, time.Minute)

	mock.ExpectSet("user:tombstone:42", "1", DefaultTombstoneTTL).SetVal("OK")
	mock.ExpectDel("user:profile:42").SetVal(1)

	require.NoError(t, c.Invalidate(context.Background(), "42"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateStopsWhenTombstoneFails(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewUserCache(db, time.Minute)

	mock.ExpectSet("user:tombstone:42", "1", DefaultTombstoneTTL).SetErr(errors.New("readonly replica"))

	assert.Error(t, c.Invalidate(context.Background(), "42"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDecodesRecord(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewUserCache(db, time.Minute)

	u := entity.NewUser("alice", "alice@x.io", "digest", "Alice", "Smith", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	u.ID = "42"
	payload, err := json.Marshal(fromEntity(u))
	require.NoError(t, err)
	mock.ExpectGet("user:profile:42").SetVal(string(payload))
	mock.ExpectGet("user:profile:43").RedisNil()

	got, ok, err := c.Get(context.Background(), "42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, u, got)

	_, ok, err = c.Get(context.Background(), "43")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
