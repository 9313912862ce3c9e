package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTL_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c := New(40 * time.Millisecond)
	defer c.Close()

	assert.Nil(t, c.Get(ctx, "logo:c1"))
	c.Set(ctx, "logo:c1", []byte("png"))
	assert.Equal(t, []byte("png"), c.Get(ctx, "logo:c1"))

	time.Sleep(60 * time.Millisecond)
	assert.Nil(t, c.Get(ctx, "logo:c1"))
}

func TestTTL_DeleteAndPrefix(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)
	defer c.Close()

	c.Set(ctx, "logo:c1", []byte("a"))
	c.Set(ctx, "logo:c2", []byte("b"))
	c.Set(ctx, "sig:x", []byte("c"))
	c.Delete(ctx, "logo:c1")
	assert.Nil(t, c.Get(ctx, "logo:c1"))

	c.DeletePrefix("logo:")
	assert.Nil(t, c.Get(ctx, "logo:c2"))
	assert.Equal(t, []byte("c"), c.Get(ctx, "sig:x"))
}

var _ Store = (*TTL)(nil)
var _ Store = (*Redis)(nil)
