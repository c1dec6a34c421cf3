package chat

import "strings"

const codeFence = "```"

// CleanCopy returns the text to put on the clipboard for a message. A message
// that is a single fenced block of more than two lines loses its opening and
// closing fence lines; anything else is copied verbatim.
func CleanCopy(text string) string {
	if strings.HasPrefix(text, codeFence) && strings.HasSuffix(text, codeFence) {
		lines := strings.Split(text, "\n")
		if len(lines) > 2 {
			return strings.Join(lines[1:len(lines)-1], "\n")
		}
	}
	return text
}
