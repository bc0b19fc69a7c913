package push

import "encoding/json"

// The broker speaks a small JSON command/reply protocol over the
// websocket. Commands carry an id so replies can be correlated; the
// broker additionally pushes publications and app-level pings with no id.

type command struct {
	ID          uint32              `json:"id,omitempty"`
	Connect     *connectRequest     `json:"connect,omitempty"`
	Subscribe   *subscribeRequest   `json:"subscribe,omitempty"`
	Unsubscribe *unsubscribeRequest `json:"unsubscribe,omitempty"`
}

type connectRequest struct {
	Token string `json:"token"`
	Name  string `json:"name,omitempty"`
}

type subscribeRequest struct {
	Channel string `json:"channel"`
}

type unsubscribeRequest struct {
	Channel string `json:"channel"`
}

type reply struct {
	ID        uint32          `json:"id,omitempty"`
	Error     *replyError     `json:"error,omitempty"`
	Connect   json.RawMessage `json:"connect,omitempty"`
	Subscribe json.RawMessage `json:"subscribe,omitempty"`
	Push      *pushMessage    `json:"push,omitempty"`
}

type replyError struct {
	Code    uint32 `json:"code"`
	Message string `json:"message"`
}

// pushMessage wraps a publication delivered on a subscribed channel.
type pushMessage struct {
	Channel string       `json:"channel"`
	Pub     *publication `json:"pub,omitempty"`
}

type publication struct {
	Data json.RawMessage `json:"data"`
}

// isAppPing reports whether raw is the broker's application-level ping,
// an empty JSON object. The client answers with the same.
func isAppPing(raw []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return len(probe) == 0
}

// ChannelName derives the broker channel for a workspace/user pair.
func ChannelName(workspaceID, userID string) string {
	return workspaceID + "#" + userID
}
