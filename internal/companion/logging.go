package companion

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"
)

const maxLogSnippetRunes = 512

// LogPayload 输出同步报文，超长内容按字符截断
func LogPayload(phase, content string) {
	log.Printf("[sync] %s", payloadSnippet(phase, content))
}

func payloadSnippet(phase, content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Sprintf("%s: <empty>", phase)
	}

	runeCount := utf8.RuneCountInString(trimmed)
	snippet := trimmed
	if runeCount > maxLogSnippetRunes {
		snippet = string([]rune(trimmed)[:maxLogSnippetRunes]) + "…(truncated)"
	}
	return fmt.Sprintf("%s (runes=%d): %s", phase, runeCount, snippet)
}
