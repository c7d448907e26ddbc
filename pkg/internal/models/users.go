package models

// ChatUser is a member of the chat workspace as reported by the gateway.
type ChatUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	Avatar   string `json:"avatar"`
}
