package tokenization

// resolvePrompt returns the literal prefix to prepend. An empty name
// falls back to the default prompt; a named prompt must exist in the
// table, and when it does, the default is ignored entirely.
func resolvePrompt(name, defaultPrompt string, prompts map[string]string) (string, error) {
	if name == "" {
		return defaultPrompt, nil
	}
	if prompts == nil {
		return "", &UnknownPromptError{Name: name}
	}
	p, ok := prompts[name]
	if !ok {
		available := make([]string, 0, len(prompts))
		for k := range prompts {
			available = append(available, k)
		}
		return "", &UnknownPromptError{Name: name, Available: available}
	}
	return p, nil
}
