package code

import (
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\n(.*?)```")

// Extract returns the contents of the last fenced code block in an assistant
// message. Models often narrate before and after the code they intend to run,
// so only the final block counts. It returns a *NoCodeFoundError when the
// message contains no fenced block.
func Extract(message string) (string, error) {
	matches := fenceRe.FindAllStringSubmatch(message, -1)
	if len(matches) == 0 {
		return "", &NoCodeFoundError{}
	}
	return strings.TrimSpace(matches[len(matches)-1][1]), nil
}
