package agent

import "strings"

// diagnosticPhrases 触发索引自检的短语
var diagnosticPhrases = []string{"vector store", "data in store", "check store"}

// IsDiagnostic 问题是否为运维自检命令
func IsDiagnostic(question string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	for _, phrase := range diagnosticPhrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}
