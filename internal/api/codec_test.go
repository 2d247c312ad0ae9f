package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c, "json codec must be registered on import")
	require.Equal(t, CodecName, c.Name())
}

func TestCodec_TaskUsesSnakeCaseFields(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b, err := Codec{}.Marshal(&Task{ID: "t1", UserID: "u1", TaskText: "Buy milk", CreatedAt: created})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"t1","user_id":"u1","task_text":"Buy milk","is_complete":false,"created_at":"2026-03-01T12:00:00Z"}`, string(b))
}

func TestCodec_FeedMessageOmitsEmptyParts(t *testing.T) {
	b, err := Codec{}.Marshal(&FeedMessage{Status: StatusSubscribed})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"SUBSCRIBED"}`, string(b))
}

func TestCodec_UnmarshalErrors(t *testing.T) {
	var m FeedMessage
	require.Error(t, Codec{}.Unmarshal([]byte(`{"status":`), &m))
	require.NoError(t, Codec{}.Unmarshal(nil, &m))
}
