package llm

import (
	"fmt"
	"strings"

	"github.com/comment-insights/internal/models"
)

// DefaultMaxPromptComments caps how many comments are embedded in one prompt
const DefaultMaxPromptComments = 50

const systemPrompt = `You are a helpful assistant that analyzes YouTube comments for content creators.`

const userPromptTemplate = `You are a comment analyzer. Using the following comments, tell pros, cons, and next hot topic.

Video Title: %s
Channel: %s

Comments:
- %s

Respond in exactly this format, one bullet per line:

PROS:
- <what viewers liked>

CONS:
- <what viewers disliked or found lacking>

NEXT HOT TOPIC:
- <a topic viewers want covered next>

Rules:
- Requests or suggestions for future videos belong under NEXT HOT TOPIC and must never be listed as CONS.
- Leave a section empty rather than inventing items.`

// BuildMessages renders the chat messages for one video, embedding at most
// maxComments sanitized comments.
func BuildMessages(video models.VideoDescriptor, comments []string, maxComments int) []Message {
	if maxComments <= 0 {
		maxComments = DefaultMaxPromptComments
	}
	if len(comments) > maxComments {
		comments = comments[:maxComments]
	}

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(userPromptTemplate,
			video.Title,
			video.ChannelName,
			strings.Join(comments, "\n- "),
		)},
	}
}
