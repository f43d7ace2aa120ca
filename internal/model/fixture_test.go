package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixtureClient_SequentialReplies(t *testing.T) {
	c := NewFixtureClient("first", "second")
	r1, err := c.Complete(context.Background(), "sys", "p1", false)
	require.NoError(t, err)
	assert.Equal(t, "first", r1)

	r2, err := c.Complete(context.Background(), "sys", "p2", false)
	require.NoError(t, err)
	assert.Equal(t, "second", r2)

	// exhausted: repeats last
	r3, err := c.Complete(context.Background(), "sys", "p3", false)
	require.NoError(t, err)
	assert.Equal(t, "second", r3)
}

func TestFixtureClient_FailNext(t *testing.T) {
	c := NewFixtureClient("ok")
	c.FailNext(2)
	_, err := c.Complete(context.Background(), "sys", "p", false)
	require.Error(t, err)
	_, err = c.Complete(context.Background(), "sys", "p", false)
	require.Error(t, err)
	r, err := c.Complete(context.Background(), "sys", "p", false)
	require.NoError(t, err)
	assert.Equal(t, "ok", r)
}
