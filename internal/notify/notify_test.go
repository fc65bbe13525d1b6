package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNoOpDispatcherDropsPayload(t *testing.T) {
	t.Parallel()

	d := &NoOpDispatcher{Logger: zap.NewNop()}
	err := d.Send(context.Background(), Payload{Title: "hello"}, []string{"token"}, nil)
	require.NoError(t, err)

	d = &NoOpDispatcher{}
	require.NoError(t, d.Send(context.Background(), Payload{}, nil, nil))
}

func TestPubSubDispatcherEmptyTokensIsNoOp(t *testing.T) {
	t.Parallel()

	// Zero-value dispatcher is safe here: Send returns before touching the
	// topic when there is nothing to deliver to.
	d := &PubSubDispatcher{logger: zap.NewNop()}
	err := d.Send(context.Background(), Payload{Title: "ignored"}, nil, nil)
	require.NoError(t, err)
}

func TestPushMessageWireShape(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(pushMessage{
		Payload: Payload{
			Title:    "[Reminder] 3 day(s) left",
			Body:     "Scholarship deadline is in 3 day(s)",
			ImageURL: "https://cdn.example.com/banner.png",
		},
		Tokens: []string{"token-a"},
		Data:   map[string]string{"path": "/root/article?id=7"},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"payload": {
			"title": "[Reminder] 3 day(s) left",
			"body": "Scholarship deadline is in 3 day(s)",
			"imageUrl": "https://cdn.example.com/banner.png"
		},
		"tokens": ["token-a"],
		"data": {"path": "/root/article?id=7"}
	}`, string(raw))
}

func TestPushMessageOmitsEmptyOptionalFields(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(pushMessage{
		Payload: Payload{Title: "t", Body: "b"},
		Tokens:  []string{"token-a"},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"payload":{"title":"t","body":"b"},"tokens":["token-a"]}`, string(raw))
}
