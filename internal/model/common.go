package model

// 响应消息
const (
	MsgSuccess = "success"
	MsgError   = "error"
)

// Response 通用响应结构
type Response struct {
	Msg   string     `json:"msg"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody 错误详情
type ErrorBody struct {
	Kind   string `json:"kind"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail"`
}

// AskRequest 提问请求
type AskRequest struct {
	UserID   string `json:"user_id"`
	TopicID  string `json:"topic_id"`
	Question string `json:"question"`
	Model    string `json:"model"`
}

// AskData 提问结果
type AskData struct {
	Answer  string `json:"answer"`
	TypeRes string `json:"type_res"`
}

// ConversationRequest 对话历史请求
type ConversationRequest struct {
	UserID  string `json:"user_id"`
	TopicID string `json:"topic_id"`
}
