package codec

import (
	"encoding/json"
	"strconv"

	"github.com/Tyrowin/imcore/internal/chat"
)

// Field order follows the delivery wire shape.
type directDelivery struct {
	ReceiverID string `json:"receiverId"`
	SenderID   string `json:"senderId"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
	Type       string `json:"type"`
}

type groupDelivery struct {
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// Encode formats the delivery payload for msg according to its kind.
func Encode(msg chat.Message) []byte {
	if msg.Kind == chat.KindGroup {
		return EncodeGroup(msg)
	}
	return EncodeDirect(msg)
}

// EncodeDirect formats the payload pushed to the receiver of a direct message.
func EncodeDirect(msg chat.Message) []byte {
	// Marshalling plain string fields cannot fail.
	b, _ := json.Marshal(directDelivery{
		ReceiverID: msg.ReceiverID,
		SenderID:   msg.SenderID,
		Content:    msg.Content,
		Timestamp:  strconv.FormatInt(msg.Timestamp, 10),
		Type:       TypeDirect,
	})
	return b
}

// EncodeGroup formats the payload pushed to each online group member.
func EncodeGroup(msg chat.Message) []byte {
	b, _ := json.Marshal(groupDelivery{
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		Timestamp: strconv.FormatInt(msg.Timestamp, 10),
		Type:      TypeGroup,
	})
	return b
}
