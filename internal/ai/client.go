// Package ai turns a free-text class list into structured class rows using
// an OpenAI-compatible chat API.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

var ErrNoResponse = errors.New("no response from AI")

type Client struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
		now:    time.Now,
	}
}

// ParsedClass mirrors one row of the schedule form.
type ParsedClass struct {
	ClassName string   `json:"class_name"`
	Location  string   `json:"location"`
	Days      []string `json:"days"`
	TimeSlot  string   `json:"time_slot"`
}

type ParseResult struct {
	Semester    string        `json:"semester"`
	Classes     []ParsedClass `json:"classes"`
	Notes       string        `json:"notes"`
	RawResponse string        `json:"-"`
}

// Hints constrains the model to values the form accepts.
type Hints struct {
	Semesters []string
	TimeSlots []string
	Buildings []string
}

const systemPromptTemplate = `You read a student's description of their class schedule and return the classes as JSON.

Today is %s.

Rules:
- One entry per class. class_name is the course name or code as written.
- days are full English weekday names, e.g. ["Monday", "Wednesday", "Friday"]. "MWF" means Monday, Wednesday, Friday; "TTh" or "TR" means Tuesday, Thursday.
- time_slot must be one of: %s
  Pick the closest listed slot when the student gives a slightly different time. Leave it empty when no time is given.
- location is "BUILDING ROOM" using one of these building codes: %s. Leave it empty when unknown.
- semester is one of: %s, or empty when not mentioned.
- Put anything you could not map into notes.`

func (c *Client) systemPrompt(h Hints) string {
	return fmt.Sprintf(systemPromptTemplate,
		c.now().Format("2006-01-02 (Monday)"),
		strings.Join(h.TimeSlots, "; "),
		strings.Join(h.Buildings, ", "),
		strings.Join(h.Semesters, ", "),
	)
}

// JSON Schema for structured output
var classesSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"semester": {
			"type": "string",
			"description": "Semester name if mentioned"
		},
		"classes": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"class_name": {"type": "string"},
					"location": {"type": "string"},
					"days": {
						"type": "array",
						"items": {
							"type": "string",
							"enum": ["Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"]
						}
					},
					"time_slot": {"type": "string"}
				},
				"required": ["class_name", "location", "days", "time_slot"],
				"additionalProperties": false
			}
		},
		"notes": {
			"type": "string",
			"description": "Anything that could not be mapped"
		}
	},
	"required": ["semester", "classes", "notes"],
	"additionalProperties": false
}`)

// ParseClasses asks the model to extract classes from text.
func (c *Client) ParseClasses(ctx context.Context, text string, hints Hints) (*ParseResult, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: c.systemPrompt(hints),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "classes",
				Schema: classesSchema,
				Strict: true,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoResponse
	}

	content := resp.Choices[0].Message.Content
	result := &ParseResult{RawResponse: content}

	if err := json.Unmarshal([]byte(content), result); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	result.Classes = keepNamed(result.Classes)
	return result, nil
}

func keepNamed(classes []ParsedClass) []ParsedClass {
	out := classes[:0]
	for _, cl := range classes {
		cl.ClassName = strings.TrimSpace(cl.ClassName)
		if cl.ClassName == "" {
			continue
		}
		cl.Location = strings.TrimSpace(cl.Location)
		cl.TimeSlot = strings.TrimSpace(cl.TimeSlot)
		out = append(out, cl)
	}
	return out
}
