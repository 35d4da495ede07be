package ws

import "encoding/json"

// Action says what happened to the entity carried in an envelope.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// DataType says what kind of entity an envelope carries.
type DataType string

const (
	DataTypeThread  DataType = "thread"
	DataTypeSection DataType = "section"
	DataTypeEvent   DataType = "event"
	DataTypeUser    DataType = "user"
)

// Envelope is the message delivered to every member of a room. For
// updates, Data carries only the changed fields plus the entity id so
// viewers can apply a patch instead of refetching.
type Envelope struct {
	Room     string          `json:"room"`
	Action   Action          `json:"action"`
	DataType DataType        `json:"data_type"`
	Data     json.RawMessage `json:"data"`
}

// JoinRequest is the inbound client message listing rooms to subscribe to.
type JoinRequest struct {
	Join []string `json:"join"`
}

// UpdatePayload flattens a partial-update struct with the entity id, so
// the envelope's data is `{"id": …, ...changed fields}`. The partial is
// expected to marshal only its set fields (pointer fields + omitempty).
func UpdatePayload(id int32, partial any) (json.RawMessage, error) {
	raw, err := json.Marshal(partial)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["id"] = id

	return json.Marshal(fields)
}

// DeletePayload is the `{"id": …}` data of a delete envelope.
func DeletePayload(id int32) json.RawMessage {
	raw, _ := json.Marshal(map[string]int32{"id": id})
	return raw
}
