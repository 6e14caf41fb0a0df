package service

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	noteMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	noteSanitizer = bluemonday.UGCPolicy()
)

// RenderNote 将分段备注从 markdown 渲染为经过清洗的 HTML
func RenderNote(markdown string) (template.HTML, error) {
	content := strings.TrimSpace(markdown)
	if content == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := noteMarkdown.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("render note: %w", err)
	}

	safe := noteSanitizer.SanitizeBytes(buf.Bytes())
	return template.HTML(safe), nil
}
