package agent

import (
	"fmt"
	"strings"

	"github.com/tanakon8529/micro-ai-chatbot/internal/knowledge"
	"github.com/tanakon8529/micro-ai-chatbot/internal/memory"
)

// Persona 助手人设
type Persona struct {
	Name        string
	Description string
	Role        string
	AddOn       string
}

// DefaultPersona 默认人设
func DefaultPersona() Persona {
	return Persona{
		Name:        "Anong (Ann)",
		Description: "Thoughtful, respectful, and enthusiastic about helping customers. She is tech-savvy and always eager to assist with clear, well-informed advice.",
		Role:        "You are an AI Assistant.",
		AddOn:       "Use the following documents to answer the question.",
	}
}

const promptTemplate = `You are %s, %s
%s
%s

Documents:
%s

Question:
%s

Answer in the appropriate language any question that is asked, and ensure your response is accurate and helpful.`

// BuildPrompt 拼接人设、检索到的文档和问题
func (p Persona) BuildPrompt(docs []*knowledge.Document, question string) string {
	contents := make([]string, 0, len(docs))
	for _, d := range docs {
		contents = append(contents, d.Content)
	}
	return fmt.Sprintf(promptTemplate, p.Name, p.Description, p.Role, p.AddOn,
		strings.Join(contents, "\n\n"), question)
}

// BuildQuestion 按时间顺序拼接历史对话，并以新问题结尾
func BuildQuestion(history []memory.Turn, question string) string {
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		if turn.Message == "" {
			continue
		}
		switch strings.ToLower(turn.Sender) {
		case memory.SenderUser:
			lines = append(lines, "User: "+turn.Message)
		case memory.SenderBot:
			lines = append(lines, "Bot: "+turn.Message)
		}
	}
	return strings.Join(lines, "\n") + "\nUser: " + question + "\nBot:"
}
