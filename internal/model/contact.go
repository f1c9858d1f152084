package model

import "time"

// ContactStatus 联系消息状态
type ContactStatus string

const (
	ContactNew     ContactStatus = "new"
	ContactRead    ContactStatus = "read"
	ContactReplied ContactStatus = "replied"
)

// Valid 是否为合法状态
func (s ContactStatus) Valid() bool {
	switch s {
	case ContactNew, ContactRead, ContactReplied:
		return true
	}
	return false
}

// ContactMessage 访客通过联系表单留下的消息
type ContactMessage struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Subject   string        `json:"subject"`
	Message   string        `json:"message"`
	Status    ContactStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	ReadAt    *time.Time    `json:"read_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ContactRequest 联系表单提交
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactQuery 收件箱分页查询
type ContactQuery struct {
	Limit  int
	Offset int
	Status ContactStatus // 为空表示不过滤
}

// ContactPage 分页结果
type ContactPage struct {
	Messages []ContactMessage `json:"messages"`
	Total    int              `json:"total"`
}

// ContactStats 收件箱统计
type ContactStats struct {
	Total   int `json:"total"`
	New     int `json:"new"`
	Read    int `json:"read"`
	Replied int `json:"replied"`
}
