package common

import (
	"encoding/json"
	"fmt"

	"github.com/kvmesh/kvclient/kvstore"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Area   kvstore.AreaId   `json:"area,omitempty"`  // Used for: Get, Dump, Set
	Areas  []kvstore.AreaId `json:"areas,omitempty"` // Reserved for multi-area batches
	Keys   []string         `json:"keys,omitempty"`  // Used for: Get (request), Dump (key filter)
	Prefix string           `json:"prefix,omitempty"` // Used for: Dump

	KeyVals     map[string]kvstore.Value `json:"key_vals,omitempty"`     // Used for: Get/Dump (response), Set (request)
	ExpiredKeys []string                 `json:"expired_keys,omitempty"` // Used for: Get (response)

	// Response only fields
	Ok  bool   `json:"ok,omitempty"`  // Used for: Set response
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewGetRequest creates a new Get request for the given keys in an area.
func NewGetRequest(area kvstore.AreaId, keys []string) *Message {
	return &Message{
		MsgType: MsgTKVGet,
		Area:    area,
		Keys:    keys,
	}
}

// NewGetResponse creates a new Get response carrying a publication.
func NewGetResponse(pub kvstore.Publication, err error) *Message {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return &Message{
		MsgType:     MsgTKVGet,
		Ok:          true,
		Area:        pub.Area,
		KeyVals:     pub.KeyVals,
		ExpiredKeys: pub.ExpiredKeys,
	}
}

// NewDumpRequest creates a new Dump request. keys is the optional explicit
// key set of kvstore.DumpParams, carried in Keys.
func NewDumpRequest(area kvstore.AreaId, prefix string, keys []string) *Message {
	return &Message{
		MsgType: MsgTKVDump,
		Area:    area,
		Prefix:  prefix,
		Keys:    keys,
	}
}

// NewDumpResponse creates a new Dump response carrying a publication snapshot.
func NewDumpResponse(pub kvstore.Publication, err error) *Message {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return &Message{
		MsgType: MsgTKVDump,
		Ok:      true,
		Area:    pub.Area,
		KeyVals: pub.KeyVals,
	}
}

// NewSetRequest creates a new Set request applying keyVals in an area.
func NewSetRequest(area kvstore.AreaId, keyVals map[string]kvstore.Value) *Message {
	return &Message{
		MsgType: MsgTKVSet,
		Area:    area,
		KeyVals: keyVals,
	}
}

// NewSetResponse creates a new Set response.
func NewSetResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTKVSet,
		Ok:      err == nil,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorResponse creates a new Error response.
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// NewUnsupportedMessageError creates an Error response for a message type a
// handler does not know how to serve.
func NewUnsupportedMessageError(t MessageType) *Message {
	return NewErrorResponse(fmt.Sprintf("unsupported message type: %s", t))
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTKVGet:
		return "get"
	case MsgTKVDump:
		return "dump"
	case MsgTKVSet:
		return "set"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "get":
		*t = MsgTKVGet
	case "dump":
		*t = MsgTKVDump
	case "set":
		*t = MsgTKVSet
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// kvstore.Client operations

	MsgTKVGet  // Fetch the current value of one or more keys
	MsgTKVDump // Snapshot all keys matching a prefix/originator filter
	MsgTKVSet  // Publish one or more key-values into an area
)
