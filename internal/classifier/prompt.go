package classifier

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielolaszy/jassist/internal/llm"
	"github.com/danielolaszy/jassist/internal/validator"
)

const maxEchoedReply = 500

// buildPrompt constructs the system and user prompts for one request.
func buildPrompt(schema validator.Schema, tracker string, now time.Time, utterance string, turns []Turn) llm.Prompt {
	var sys strings.Builder
	fmt.Fprintf(&sys, "You translate requests for a %s issue tracker into a single JSON object.\n", tracker)
	fmt.Fprintf(&sys, "Today is %s (%s).\n\n", now.Format(time.DateOnly), now.Weekday())
	sys.WriteString("Return exactly one of these shapes (? marks optional fields):\n")
	sys.WriteString(schema.Describe())
	sys.WriteString(`
Rules:
- Return valid JSON only, no markdown fencing or explanation
- Omit fields the request does not mention; omitted filters mean "any"
- "summary" is a short imperative title, e.g. "Implement the login page"
- Use intent "suggest" when the user asks what to work on next, otherwise "list"
- "my" or "me" means assignment "me"; a named person means assignment "userRef" with "user" set to their name or email
- "open" means not done; use "inProgress" only when the user says in progress
- Suggestions only consider open work: set status "open" for intent "suggest"
- For assign_issues without other criteria use filters {"assignment": "unassigned"}
- Write dates as YYYY-MM-DD
- If the request is none of these, return {"action": "unknown", "reason": "<why>"}`)

	var user strings.Builder
	if len(turns) > 0 {
		user.WriteString("Recent requests, most recent first:\n")
		for i, t := range turns {
			fmt.Fprintf(&user, "%d. %q -> %s\n", i+1, t.Utterance, t.Summary)
		}
		user.WriteString("\n")
	}
	user.WriteString("Request: ")
	user.WriteString(utterance)

	return llm.Prompt{System: sys.String(), User: user.String()}
}

// correctivePrompt asks the model to fix a rejected reply.
func correctivePrompt(base llm.Prompt, reply string, verr *validator.ValidationError) llm.Prompt {
	reply = clipReply(reply, maxEchoedReply)
	var user strings.Builder
	user.WriteString(base.User)
	user.WriteString("\n\nYour previous reply was rejected: ")
	user.WriteString(verr.Error())
	user.WriteString("\nPrevious reply:\n")
	user.WriteString(reply)
	user.WriteString("\n\nReply again with one corrected JSON object only.")
	return llm.Prompt{System: base.System, User: user.String()}
}

// clipReply cuts s to at most n bytes on a rune boundary.
func clipReply(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
