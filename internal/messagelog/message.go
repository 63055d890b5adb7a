package messagelog

// Room the relay currently serves.
const DefaultRoom = "general"

type Message struct {
	Room      string `json:"room"`
	Index     uint64 `json:"index"`
	Timestamp int64  `json:"timestamp"`
	Username  string `json:"username"`
	Content   string `json:"content"`
}
