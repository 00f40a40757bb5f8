package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/tokobase/tokobase/internal/testing/guard"
)

type purgerSpy struct {
	cutoff  time.Time
	removed int64
	err     error
}

func (p *purgerSpy) DeleteInactiveBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return p.removed, p.err
}

func TestSessionsPurgeUsesPayloadRetention(t *testing.T) {
	spy := &purgerSpy{removed: 4}
	handler := NewSessionsPurgeHandler(spy, nil, nil)

	task, err := NewSessionsPurgeTask(SessionsPurgePayload{Retention: 48 * time.Hour})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	assert.WithinDuration(t, time.Now().UTC().Add(-48*time.Hour), spy.cutoff, 5*time.Second)
}

func TestSessionsPurgeDefaultsRetention(t *testing.T) {
	spy := &purgerSpy{}
	handler := NewSessionsPurgeHandler(spy, nil, nil)

	task, err := NewSessionsPurgeTask(SessionsPurgePayload{})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	assert.WithinDuration(t, time.Now().UTC().Add(-DefaultSessionRetention), spy.cutoff, 5*time.Second)
}

func TestSessionsPurgePropagatesError(t *testing.T) {
	spy := &purgerSpy{err: errors.New("koneksi putus")}
	handler := NewSessionsPurgeHandler(spy, nil, nil)

	task, err := NewSessionsPurgeTask(SessionsPurgePayload{})
	require.NoError(t, err)

	assert.Error(t, handler(context.Background(), task))
}
