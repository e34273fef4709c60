package extract

// Text returns the generated text from a chat response.
func Text(p Payload) (string, bool) {
	return First(p,
		choicesContent("choices"),
		choicesContent("data"),
		textField("text"),
		textField("output"),
		textField("result"),
	)
}

func choicesContent(key string) Matcher[string] {
	return func(p Payload) (string, bool) {
		list, ok := p[key].([]any)
		if !ok || len(list) == 0 {
			return "", false
		}
		first, ok := list[0].(map[string]any)
		if !ok {
			return "", false
		}
		msg, ok := mapField(first, "message")
		if !ok {
			return "", false
		}
		content, ok := msg["content"].(string)
		return content, ok && content != ""
	}
}

func textField(key string) Matcher[string] {
	return func(p Payload) (string, bool) {
		switch value := p[key].(type) {
		case string:
			return value, value != ""
		case map[string]any:
			text, ok := value["text"].(string)
			return text, ok && text != ""
		}
		return "", false
	}
}
