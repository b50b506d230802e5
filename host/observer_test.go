package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogObserver(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	eng := NewEngine()
	eng.Subscribe(NewLogObserver(zap.New(core)))

	l, err := eng.LoaderCreate("test", nil)
	require.NoError(t, err)
	release, err := eng.BorrowLoader(l)
	require.NoError(t, err)
	release()
	require.NoError(t, eng.LoaderDestroy(l))

	entries := logs.All()
	require.Len(t, entries, 4)
	var msgs []string
	for _, e := range entries {
		msgs = append(msgs, e.Message)
		assert.Equal(t, "loader", e.ContextMap()["class"])
		assert.Equal(t, uint32(l), e.ContextMap()["handle"])
	}
	assert.Equal(t, []string{"object created", "object borrowed", "borrow returned", "object dropped"}, msgs)
}
