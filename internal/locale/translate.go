package locale

// Pick returns the text matching the request language, defaulting to Chinese.
func Pick(language, english, chinese string) string {
	if NormalizeLanguage(language) == LanguageEnglish {
		if english != "" {
			return english
		}
		return chinese
	}
	if chinese != "" {
		return chinese
	}
	return english
}

var legTitles = map[string][2]string{
	"pre_jog":  {"Warm-up", "热身"},
	"jog":      {"Jog", "慢跑"},
	"post_jog": {"Cool-down", "拉伸放松"},
}

// LegTitle 返回日历事件标题，例如 "慢跑 · 热身" / "Jog · Warm-up"
func LegTitle(language, kind string) string {
	prefix := Pick(language, "Jog", "慢跑")
	names, ok := legTitles[kind]
	if !ok {
		return prefix
	}
	name := Pick(language, names[0], names[1])
	if name == prefix {
		return name
	}
	return prefix + " · " + name
}
