package recommend

import "fmt"

const systemPrompt = "You are a book recommendation assistant."

func explanationPrompt(query, title, document string) string {
	return fmt.Sprintf(
		"Give a book \"%s\". Here is a suitable title: %s.\nShort summary: %s\nExplain why it fits the user's request.",
		query, title, document,
	)
}

func coverPrompt(title, document string) string {
	return "Generate a good, original book cover-style illustration (no text) " +
		"inspired by the following book idea. Avoid copyrighted logos or exact replicas. " +
		"Title idea: " + title + ". " +
		"Theme & mood from summary: " + document + ". " +
		"Style: clean, high-contrast, cinematic lighting."
}
