package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maxliu9403/ProxyBoard/internal/logic/proxy"
	"github.com/maxliu9403/ProxyBoard/models"
)

type fakeRetester struct {
	testing bool
	calls   int
	err     error
}

func (f *fakeRetester) Testing() bool { return f.testing }

func (f *fakeRetester) TestBulk(_ context.Context, ids []int64) (models.BulkOperation, error) {
	f.calls++
	return models.BulkOperation{}, f.err
}

func TestRetestJob(t *testing.T) {
	f := &fakeRetester{testing: true}
	job := NewRetestJob(context.Background(), f)

	job.Run()
	require.Equal(t, 0, f.calls)

	f.testing = false
	f.err = proxy.ErrNoProxies
	job.Run()
	require.Equal(t, 1, f.calls)

	f.err = proxy.ErrClosed
	job.Run()
	require.Equal(t, 2, f.calls)
}
