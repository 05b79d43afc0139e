package logpush

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diapets/internal/ports/push"
)

func TestTransport_SendAcceptsEveryAddress(t *testing.T) {
	tr := New(nil)

	res := tr.Send(context.Background(), []string{"tok-a", "tok-b"}, push.Message{Title: "Toby: Insulina!"})
	require.Len(t, res, 2)
	assert.Equal(t, "tok-a", res[0].Address)
	assert.True(t, res[0].OK())
	assert.True(t, res[1].OK())

	assert.Empty(t, tr.Send(context.Background(), nil, push.Message{}))
}
