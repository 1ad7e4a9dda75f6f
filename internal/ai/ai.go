package ai

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spyzhov/ajson"

	"stakevault/internal/stakeapi"
)

// Advisor implements stakeapi.Advisor against the OpenAI chat API. It only
// consumes read-only snapshots and returns display strings; nothing here
// touches the ledger.
type Advisor struct {
	client *openai.Client
	model  string
}

func New() *Advisor {
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &Advisor{
		client: openai.NewClient(os.Getenv("OPENAI_API_KEY")),
		model:  model,
	}
}

const analyzePrompt = `You are an analyst for a staking platform. Given a JSON
snapshot of a user's account and their 3-level referral downline, reply with a
single JSON object, no prose, with keys: "strengths" (array of strings),
"weaknesses" (array of strings), "suggestions" (array of strings) and
"reward_analysis" (string).`

func (a *Advisor) AnalyzeTeam(ctx context.Context, team stakeapi.TeamSnapshot) (stakeapi.TeamAnalysis, error) {
	payload, err := json.Marshal(team)
	if err != nil {
		return stakeapi.TeamAnalysis{}, err
	}
	content, err := a.complete(ctx, analyzePrompt, string(payload))
	if err != nil {
		return stakeapi.TeamAnalysis{}, err
	}
	return parseAnalysis(content)
}

const composePrompt = `You write one short motivational message for a staking
platform user. Given a JSON snapshot of their account and, when present, the
thresholds of their next level, reply with the message text only.`

func (a *Advisor) ComposeMessage(ctx context.Context, input stakeapi.MessageInput) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	content, err := a.complete(ctx, composePrompt, string(payload))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (a *Advisor) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// parseAnalysis reads the model's JSON with ajson, tolerating wrappers like
// markdown code fences around the object.
func parseAnalysis(content string) (stakeapi.TeamAnalysis, error) {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			content = content[start : end+1]
		}
	}
	root, err := ajson.Unmarshal([]byte(content))
	if err != nil {
		return stakeapi.TeamAnalysis{}, err
	}
	out := stakeapi.TeamAnalysis{
		Strengths:   stringsAt(root, "strengths"),
		Weaknesses:  stringsAt(root, "weaknesses"),
		Suggestions: stringsAt(root, "suggestions"),
	}
	if node, err := root.GetKey("reward_analysis"); err == nil {
		out.RewardAnalysis, _ = node.GetString()
	}
	return out, nil
}

func stringsAt(root *ajson.Node, key string) []string {
	node, err := root.GetKey(key)
	if err != nil {
		return nil
	}
	items, err := node.GetArray()
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, err := item.GetString(); err == nil {
			out = append(out, s)
		}
	}
	return out
}
