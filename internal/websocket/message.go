package websocket

import "strconv"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// UserTopic is the hub topic carrying the task events of one user.
func UserTopic(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}
