package scanner

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EMAScan/internal/domain/models"
	"EMAScan/pkg/logger"
)

func TestEventStreamParsesFrames(t *testing.T) {
	body := strings.Join([]string{
		": keep-alive",
		"",
		`data: {"type":"coin_result",`,
		`data:  "data":{"symbol":"ETH","weekly":{"symbol":"ETH","pct_from_ema50":3.5}}}`,
		"",
		"data: not json",
		"",
		"event: error",
		`data: {"error":"rate limited"}`,
		"",
		`data: {"type":"complete"}`,
	}, "\r\n")

	s := newEventStream(io.NopCloser(strings.NewReader(body)), logger.Nop())

	ev, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, models.EventCoinResult, ev.Type)
	assert.JSONEq(t, `{"symbol":"ETH","weekly":{"symbol":"ETH","pct_from_ema50":3.5}}`, string(ev.Data))

	ev, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, models.EventError, ev.Type)
	assert.Equal(t, "rate limited", ev.Error)

	ev, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, models.EventComplete, ev.Type)

	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
