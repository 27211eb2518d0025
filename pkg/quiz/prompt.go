package quiz

import (
	"fmt"
	"strings"
)

const basePrompt = `You are an expert tutor. Generate a quiz with %d multiple choice questions about "%s".
`

const groundedPrompt = `Every question must be answerable from the following study material alone:

%s

`

const (
	listShape   = "a list of objects"
	objectShape = `an object with a single key "questions" holding a list of objects`
)

const formatPrompt = `Return the result as valid JSON ONLY.
The structure should be %s, where each object has:
- "question": string
- "options": list of 4 distinct strings
- "correct_answer": string (must be exactly one of the options)

Do not include any explanation or markdown formatting outside the JSON.`

// BuildPrompt returns the generation prompt. Non-empty material requires
// questions to be answerable from it. With object set the reply is asked for
// as {"questions": [...]}, which JSON mode providers require.
func BuildPrompt(topic string, n int, material string, object bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, basePrompt, n, topic)
	b.WriteString("\n")
	if strings.TrimSpace(material) != "" {
		fmt.Fprintf(&b, groundedPrompt, material)
	}

	shape := listShape
	if object {
		shape = objectShape
	}
	fmt.Fprintf(&b, formatPrompt, shape)
	return b.String()
}
