package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"
)

func TestGetReturnsValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "emb:key")).
		Return(mock.Result(mock.RedisString("payload")))

	data, found, err := NewStoreWithClient(c).Get(context.Background(), "emb:key")
	if err != nil || !found {
		t.Fatalf("Get() found=%v err=%v", found, err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected value %q", data)
	}
}

func TestGetMissingKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "absent")).
		Return(mock.Result(mock.RedisNil()))

	_, found, err := NewStoreWithClient(c).Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("missing key must not be an error: %v", err)
	}
	if found {
		t.Fatalf("expected found=false")
	}
}

func TestGetError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.ErrorResult(errors.New("connection refused")))

	if _, _, err := NewStoreWithClient(c).Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSetWithTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "EX", "60")).
		Return(mock.Result(mock.RedisString("OK")))

	if err := NewStoreWithClient(c).Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
}

func TestSetWithoutTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.Result(mock.RedisString("OK")))

	if err := NewStoreWithClient(c).Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
}
