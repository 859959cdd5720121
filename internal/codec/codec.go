// Package codec translates websocket text frames into typed chat events and
// formats the delivery payloads pushed to online peers.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Frame type discriminators.
const (
	TypeLogin  = "LOGIN"
	TypeDirect = "DIRECT"
	TypeGroup  = "GROUP"
)

var (
	ErrMalformed    = errors.New("malformed frame")
	ErrUnknownType  = errors.New("unknown frame type")
	ErrMissingField = errors.New("missing required field")
)

// DecodeError describes why a frame was rejected. It unwraps to one of the
// sentinel errors above.
type DecodeError struct {
	Err    error
	Detail string
	Size   int
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("decode frame (%d bytes): %v", e.Size, e.Err)
	}
	return fmt.Sprintf("decode frame (%d bytes): %v: %s", e.Size, e.Err, e.Detail)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Event is one of Login, Direct or Group.
type Event interface {
	Kind() string
	isEvent()
}

// Login binds the sending connection to UserID.
type Login struct {
	UserID string `json:"userId" validate:"required"`
}

// Direct is a 1:1 message. TimestampHint is whatever the client sent and is
// never used for the persisted record.
type Direct struct {
	SenderID      string `json:"senderId" validate:"required"`
	ReceiverID    string `json:"receiverId" validate:"required"`
	Content       string `json:"content" validate:"required"`
	TimestampHint int64  `json:"timestamp"`
}

// Group is a message addressed to every member of TeamID.
type Group struct {
	SenderID      string `json:"senderId" validate:"required"`
	TeamID        string `json:"teamId" validate:"required"`
	Content       string `json:"content" validate:"required"`
	TimestampHint int64  `json:"timestamp"`
}

func (Login) Kind() string  { return TypeLogin }
func (Direct) Kind() string { return TypeDirect }
func (Group) Kind() string  { return TypeGroup }

func (Login) isEvent()  {}
func (Direct) isEvent() {}
func (Group) isEvent()  {}

// id accepts a JSON string or integer and keeps its textual form.
type id string

func (i *id) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*i = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = id(strings.TrimSpace(s))
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("id must be a string or an integer, got %s", b)
	}
	*i = id(strconv.FormatInt(n, 10))
	return nil
}

// wire is the union of every inbound field.
type wire struct {
	Type       *string         `json:"type"`
	UserID     id              `json:"userId"`
	SenderID   id              `json:"senderId"`
	ReceiverID id              `json:"receiverId"`
	TeamID     id              `json:"teamId"`
	Content    string          `json:"content"`
	Timestamp  json.RawMessage `json:"timestamp"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode parses one inbound text frame. It never panics; every failure is a
// *DecodeError.
func Decode(raw []byte) (Event, error) {
	var w wire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, &DecodeError{Err: ErrMalformed, Detail: err.Error(), Size: len(raw)}
	}
	if w.Type == nil {
		return nil, &DecodeError{Err: ErrMissingField, Detail: "type", Size: len(raw)}
	}

	var ev Event
	switch *w.Type {
	case TypeLogin:
		ev = Login{UserID: string(w.UserID)}
	case TypeDirect:
		ev = Direct{
			SenderID:      string(w.SenderID),
			ReceiverID:    string(w.ReceiverID),
			Content:       w.Content,
			TimestampHint: timestampHint(w.Timestamp),
		}
	case TypeGroup:
		ev = Group{
			SenderID:      string(w.SenderID),
			TeamID:        string(w.TeamID),
			Content:       w.Content,
			TimestampHint: timestampHint(w.Timestamp),
		}
	default:
		return nil, &DecodeError{Err: ErrUnknownType, Detail: strconv.Quote(*w.Type), Size: len(raw)}
	}

	if err := validate.Struct(ev); err != nil {
		return nil, &DecodeError{Err: ErrMissingField, Detail: missingFields(err), Size: len(raw)}
	}
	return ev, nil
}

func missingFields(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return strings.Join(fields, ",")
}

// timestampHint reads a client timestamp if it is an integer and ignores
// anything else.
func timestampHint(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	s := strings.Trim(string(bytes.TrimSpace(raw)), `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
