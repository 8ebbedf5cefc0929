package ws

import (
	"encoding/json"
	"fmt"

	"github.com/tablelobby/backend/internal/auth"
	"github.com/tablelobby/backend/internal/lobby"
)

// MessageType discriminates the JSON envelope via its $type field.
type MessageType string

const (
	// Inbound.
	MsgLogin             MessageType = "login"
	MsgPing              MessageType = "ping"
	MsgSubscribeTables   MessageType = "subscribe_tables"
	MsgUnsubscribeTables MessageType = "unsubscribe_tables"
	MsgAddTable          MessageType = "add_table"
	MsgUpdateTable       MessageType = "update_table"
	MsgRemoveTable       MessageType = "remove_table"

	// Outbound.
	MsgLoginSuccessful MessageType = "login_successful"
	MsgPong            MessageType = "pong"
	MsgTableList       MessageType = "table_list"
	MsgTableAdded      MessageType = "table_added"
	MsgTableUpdated    MessageType = "table_updated"
	MsgTableRemoved    MessageType = "table_removed"
	MsgError           MessageType = "error"
)

// Inbound messages. Fields sit at the top level of the envelope alongside
// the $type discriminator.

type Login struct {
	Type     MessageType `json:"$type"`
	Username string      `json:"username"`
	Password string      `json:"password"`
}

type Ping struct {
	Type MessageType `json:"$type"`
	Seq  uint64      `json:"seq"`
}

type SubscribeTables struct {
	Type MessageType `json:"$type"`
}

type UnsubscribeTables struct {
	Type MessageType `json:"$type"`
}

// TableToAdd is the id-less table shape carried by add_table; the collection
// assigns the id on commit.
type TableToAdd struct {
	Name         string `json:"name"`
	Participants uint64 `json:"participants"`
}

type AddTable struct {
	Type MessageType `json:"$type"`
	// AfterID absent or null means "at the front", as does the explicit
	// front sentinel -1.
	AfterID *int64     `json:"after_id"`
	Table   TableToAdd `json:"table"`
}

type UpdateTable struct {
	Type  MessageType `json:"$type"`
	Table lobby.Table `json:"table"`
}

type RemoveTable struct {
	Type MessageType `json:"$type"`
	ID   int64       `json:"id"`
}

// Decode parses one inbound frame into its typed message. Unknown or
// malformed frames surface as an error, which the session reports back as a
// protocol error.
func Decode(data []byte) (any, error) {
	var head struct {
		Type MessageType `json:"$type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parsing envelope: %w", err)
	}

	switch head.Type {
	case MsgLogin:
		m := &Login{}
		return m, json.Unmarshal(data, m)
	case MsgPing:
		m := &Ping{}
		return m, json.Unmarshal(data, m)
	case MsgSubscribeTables:
		m := &SubscribeTables{}
		return m, json.Unmarshal(data, m)
	case MsgUnsubscribeTables:
		m := &UnsubscribeTables{}
		return m, json.Unmarshal(data, m)
	case MsgAddTable:
		m := &AddTable{}
		return m, json.Unmarshal(data, m)
	case MsgUpdateTable:
		m := &UpdateTable{}
		return m, json.Unmarshal(data, m)
	case MsgRemoveTable:
		m := &RemoveTable{}
		return m, json.Unmarshal(data, m)
	default:
		return nil, fmt.Errorf("unknown message type %q", head.Type)
	}
}

// Outbound messages.

type LoginSuccessful struct {
	Type     MessageType `json:"$type"`
	UserType auth.Role   `json:"user_type"`
}

type Pong struct {
	Type MessageType `json:"$type"`
	Seq  uint64      `json:"seq"`
}

type TableList struct {
	Type   MessageType   `json:"$type"`
	Tables []lobby.Table `json:"tables"`
}

type TableAdded struct {
	Type MessageType `json:"$type"`
	// AfterID is the id of the table now preceding the new one, or -1 when
	// it was inserted at the front.
	AfterID int64       `json:"after_id"`
	Table   lobby.Table `json:"table"`
}

type TableUpdated struct {
	Type  MessageType `json:"$type"`
	Table lobby.Table `json:"table"`
}

type TableRemoved struct {
	Type MessageType `json:"$type"`
	ID   int64       `json:"id"`
}

// ErrorKind names the error taxonomy reported to the originating session.
type ErrorKind string

const (
	ErrAuth                 ErrorKind = "auth_error"
	ErrForbidden            ErrorKind = "forbidden"
	ErrNotFound             ErrorKind = "not_found"
	ErrProtocol             ErrorKind = "protocol_error"
	ErrAlreadyAuthenticated ErrorKind = "already_authenticated"
)

type ErrorMessage struct {
	Type   MessageType `json:"$type"`
	Kind   ErrorKind   `json:"kind"`
	Detail string      `json:"detail"`
}

func newError(kind ErrorKind, detail string) ErrorMessage {
	return ErrorMessage{Type: MsgError, Kind: kind, Detail: detail}
}

// eventMessage maps a committed lobby event to its outbound wire form.
func eventMessage(ev lobby.Event) any {
	switch ev.Kind {
	case lobby.EventAdded:
		return TableAdded{Type: MsgTableAdded, AfterID: ev.AfterID, Table: ev.Table}
	case lobby.EventUpdated:
		return TableUpdated{Type: MsgTableUpdated, Table: ev.Table}
	case lobby.EventRemoved:
		return TableRemoved{Type: MsgTableRemoved, ID: ev.ID}
	default:
		return nil
	}
}
