package codec

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/imcore/internal/chat"
)

func TestDecode_Login(t *testing.T) {
	req := require.New(t)

	ev, err := Decode([]byte(`{"type":"LOGIN","userId":"42"}`))
	req.NoError(err)
	req.Equal(Login{UserID: "42"}, ev)
	req.Equal(TypeLogin, ev.Kind())
}

func TestDecode_NumericIDs(t *testing.T) {
	req := require.New(t)

	ev, err := Decode([]byte(`{"type":"DIRECT","senderId":42,"receiverId":7,"content":"hi","timestamp":1700000000000}`))
	req.NoError(err)
	req.Equal(Direct{SenderID: "42", ReceiverID: "7", Content: "hi", TimestampHint: 1700000000000}, ev)

	ev, err = Decode([]byte(`{"type":"LOGIN","userId":42}`))
	req.NoError(err)
	req.Equal(Login{UserID: "42"}, ev)
}

func TestDecode_Group(t *testing.T) {
	req := require.New(t)

	ev, err := Decode([]byte(`{"type":"GROUP","senderId":"42","teamId":3,"content":"standup"}`))
	req.NoError(err)
	req.Equal(Group{SenderID: "42", TeamID: "3", Content: "standup"}, ev)
	req.Equal(TypeGroup, ev.Kind())
}

func TestDecode_IgnoresUnparsableTimestamp(t *testing.T) {
	req := require.New(t)

	ev, err := Decode([]byte(`{"type":"DIRECT","senderId":1,"receiverId":2,"content":"x","timestamp":"yesterday"}`))
	req.NoError(err)
	req.Equal(int64(0), ev.(Direct).TimestampHint)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `hello`, ErrMalformed},
		{"array", `[1,2]`, ErrMalformed},
		{"truncated", `{"type":"LOGIN"`, ErrMalformed},
		{"float id", `{"type":"DIRECT","senderId":4.2,"receiverId":7,"content":"hi"}`, ErrMalformed},
		{"bool id", `{"type":"LOGIN","userId":true}`, ErrMalformed},
		{"content not string", `{"type":"GROUP","senderId":1,"teamId":2,"content":5}`, ErrMalformed},
		{"missing type", `{"userId":"42"}`, ErrMissingField},
		{"null frame", `null`, ErrMissingField},
		{"unknown type", `{"type":"PRESENCE","userId":"42"}`, ErrUnknownType},
		{"lowercase type", `{"type":"login","userId":"42"}`, ErrUnknownType},
		{"login without user", `{"type":"LOGIN"}`, ErrMissingField},
		{"login blank user", `{"type":"LOGIN","userId":"  "}`, ErrMissingField},
		{"direct without receiver", `{"type":"DIRECT","senderId":42,"content":"hi"}`, ErrMissingField},
		{"direct without content", `{"type":"DIRECT","senderId":42,"receiverId":7}`, ErrMissingField},
		{"group without team", `{"type":"GROUP","senderId":42,"content":"hi"}`, ErrMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.raw))
			require.Nil(t, ev)
			require.ErrorIs(t, err, tt.want)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			require.Equal(t, len(tt.raw), decodeErr.Size)
		})
	}
}

func TestDecode_MissingFieldsNamed(t *testing.T) {
	_, err := Decode([]byte(`{"type":"DIRECT","content":"hi"}`))
	require.ErrorIs(t, err, ErrMissingField)
	require.Contains(t, err.Error(), "senderId")
	require.Contains(t, err.Error(), "receiverId")
}

// TestDecode_IsPure checks that decoding the same frame twice yields the same
// event or the same error.
func TestDecode_IsPure(t *testing.T) {
	frames := []string{
		`{"type":"LOGIN","userId":"42"}`,
		`{"type":"DIRECT","senderId":42,"receiverId":7,"content":"hi"}`,
		`{"type":"NOPE"}`,
		`{{{`,
	}
	for _, f := range frames {
		ev1, err1 := Decode([]byte(f))
		ev2, err2 := Decode([]byte(f))
		require.Equal(t, ev1, ev2, f)
		if err1 == nil {
			require.NoError(t, err2)
			continue
		}
		require.EqualError(t, err2, err1.Error())
	}
}

func TestEncodeDirect_Shape(t *testing.T) {
	req := require.New(t)
	msg := chat.Message{Kind: chat.KindDirect, SenderID: "42", ReceiverID: "7", Content: "hi", Timestamp: 1700000000123}

	got := EncodeDirect(msg)
	req.JSONEq(`{"receiverId":"7","senderId":"42","content":"hi","timestamp":"1700000000123","type":"DIRECT"}`, string(got))
	req.Equal(`{"receiverId":"7","senderId":"42","content":"hi","timestamp":"1700000000123","type":"DIRECT"}`, string(got))
}

func TestEncodeGroup_Shape(t *testing.T) {
	req := require.New(t)
	msg := chat.Message{Kind: chat.KindGroup, SenderID: "42", TeamID: "3", Content: "standup", Timestamp: 5}

	got := EncodeGroup(msg)
	req.Equal(`{"senderId":"42","content":"standup","timestamp":"5","type":"GROUP"}`, string(got))

	var decoded map[string]string
	req.NoError(json.Unmarshal(Encode(msg), &decoded))
	req.NotContains(decoded, "teamId")
}
