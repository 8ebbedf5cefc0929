package ws

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/tablelobby/backend/internal/lobby"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name string
		data string
		want any
	}{
		{
			name: "Login",
			data: `{"$type":"login","username":"admin","password":"admin"}`,
			want: &Login{Type: MsgLogin, Username: "admin", Password: "admin"},
		},
		{
			name: "Ping",
			data: `{"$type":"ping","seq":12345}`,
			want: &Ping{Type: MsgPing, Seq: 12345},
		},
		{
			name: "SubscribeTables",
			data: `{"$type":"subscribe_tables"}`,
			want: &SubscribeTables{Type: MsgSubscribeTables},
		},
		{
			name: "UnsubscribeTables",
			data: `{"$type":"unsubscribe_tables"}`,
			want: &UnsubscribeTables{Type: MsgUnsubscribeTables},
		},
		{
			name: "AddTableAfter",
			data: `{"$type":"add_table","after_id":1,"table":{"name":"t","participants":4}}`,
			want: &AddTable{Type: MsgAddTable, AfterID: ptr(int64(1)), Table: TableToAdd{Name: "t", Participants: 4}},
		},
		{
			name: "AddTableNoAfterID",
			data: `{"$type":"add_table","table":{"name":"t","participants":4}}`,
			want: &AddTable{Type: MsgAddTable, Table: TableToAdd{Name: "t", Participants: 4}},
		},
		{
			name: "UpdateTable",
			data: `{"$type":"update_table","table":{"id":3,"name":"t","participants":2}}`,
			want: &UpdateTable{Type: MsgUpdateTable, Table: lobby.Table{ID: 3, Name: "t", Participants: 2}},
		},
		{
			name: "RemoveTable",
			data: `{"$type":"remove_table","id":3}`,
			want: &RemoveTable{Type: MsgRemoveTable, ID: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.data))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"NotJSON", `{{{`},
		{"UnknownType", `{"$type":"destroy_lobby"}`},
		{"MissingType", `{"seq":1}`},
		{"WrongFieldType", `{"$type":"ping","seq":"one"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.data))
			if err == nil {
				t.Errorf("Decode(%s) = %#v, want error", tt.data, msg)
			}
		})
	}
}

// The serialized form the protocol promises: $type discriminator, fields at
// the top level, -1 for a front insert.
func TestEncodeTableAdded(t *testing.T) {
	msg := TableAdded{
		Type:    MsgTableAdded,
		AfterID: lobby.FrontID,
		Table:   lobby.Table{ID: 3, Name: "table - Foo Fighters", Participants: 4},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"$type":    "table_added",
		"after_id": float64(-1),
		"table": map[string]any{
			"id":           float64(3),
			"name":         "table - Foo Fighters",
			"participants": float64(4),
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("encoded form = %v, want %v", got, want)
	}
}

func TestEventMessage(t *testing.T) {
	tbl := lobby.Table{ID: 2, Name: "t", Participants: 4}

	tests := []struct {
		name string
		ev   lobby.Event
		want any
	}{
		{
			name: "Added",
			ev:   lobby.Event{Kind: lobby.EventAdded, Version: 5, Table: tbl, AfterID: 1},
			want: TableAdded{Type: MsgTableAdded, AfterID: 1, Table: tbl},
		},
		{
			name: "Updated",
			ev:   lobby.Event{Kind: lobby.EventUpdated, Version: 6, Table: tbl},
			want: TableUpdated{Type: MsgTableUpdated, Table: tbl},
		},
		{
			name: "Removed",
			ev:   lobby.Event{Kind: lobby.EventRemoved, Version: 7, ID: 2},
			want: TableRemoved{Type: MsgTableRemoved, ID: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eventMessage(tt.ev)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("eventMessage() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
