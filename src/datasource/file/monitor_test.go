package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileMonitorDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "CDE.xlsx")
	touch(t, target)

	m, err := NewFileMonitor(target, 100*time.Millisecond)
	require.NoError(t, err)
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan string, 10)
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx, func(p string) { calls <- p }) }()

	touch(t, filepath.Join(dir, "other.txt"))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte{byte(i)}, 0o644))
	}

	select {
	case p := <-calls:
		assert.Equal(t, target, p)
	case <-time.After(3 * time.Second):
		t.Fatal("handler not called")
	}

	select {
	case <-calls:
		t.Fatal("burst delivered more than once")
	case <-time.After(300 * time.Millisecond):
	}
	assert.False(t, m.LastEvent().IsZero())

	cancel()
	require.NoError(t, <-done)
}
