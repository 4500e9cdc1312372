package service

import (
	"context"
	"fmt"
	"strings"

	"skillforge_backend/internal/llm"
	"skillforge_backend/internal/model"
)

const systemPrompt = "You are SkillForge AI, an expert mentor for developers. Always answer with a single JSON object that matches the requested schema, with no extra text or markdown."

func stringArray(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "string"},
	}
}

var (
	ProjectBriefSchema = &llm.Schema{
		Name:        "project-brief",
		Description: "A coding project brief tailored to the learner",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":       map[string]any{"type": "string", "minLength": 1},
				"description": map[string]any{"type": "string", "minLength": 1},
				"milestones": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items":    map[string]any{"type": "string"},
				},
				"skillsUsed": stringArray("3-5 key skills from the learner's list"),
			},
			"required":             []any{"title", "description", "milestones", "skillsUsed"},
			"additionalProperties": false,
		},
	}

	ChallengeBriefSchema = &llm.Schema{
		Name:        "challenge-brief",
		Description: "A single focused coding challenge",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":       map[string]any{"type": "string", "minLength": 1},
				"description": map[string]any{"type": "string", "minLength": 1},
				"category":    map[string]any{"type": "string"},
				"skillsUsed":  stringArray("2-4 key skills relevant to this challenge"),
			},
			"required":             []any{"title", "description", "category", "skillsUsed"},
			"additionalProperties": false,
		},
	}

	DailyChallengesSchema = &llm.Schema{
		Name:        "daily-challenges",
		Description: "Exactly three short challenge suggestions",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"challenges": map[string]any{
					"type":     "array",
					"minItems": 3,
					"maxItems": 3,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title":       map[string]any{"type": "string", "minLength": 1},
							"description": map[string]any{"type": "string", "minLength": 1},
							"difficulty":  map[string]any{"type": "string", "enum": []any{"Beginner", "Intermediate"}},
							"category":    map[string]any{"type": "string"},
							"skillsUsed":  stringArray("skills exercised by the challenge"),
						},
						"required":             []any{"title", "description", "difficulty", "category", "skillsUsed"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []any{"challenges"},
			"additionalProperties": false,
		},
	}

	ReviewSchema = &llm.Schema{
		Name:        "project-review",
		Description: "A constructive code review with a 1-5 score",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"overall":             map[string]any{"type": "string", "minLength": 1},
				"strengths":           stringArray("2-3 things the learner did well"),
				"areasForImprovement": stringArray("2-3 actionable improvements"),
				"score":               map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
			},
			"required":             []any{"overall", "strengths", "areasForImprovement", "score"},
			"additionalProperties": false,
		},
	}

	HintSchema = &llm.Schema{
		Name:        "project-hint",
		Description: "A single actionable hint",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"hint": map[string]any{"type": "string", "minLength": 1},
			},
			"required":             []any{"hint"},
			"additionalProperties": false,
		},
	}
)

type ProjectBrief struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Milestones  []string `json:"milestones"`
	SkillsUsed  []string `json:"skillsUsed"`
}

type ChallengeBrief struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	SkillsUsed  []string `json:"skillsUsed"`
}

// ChallengeSuggestion 每日推荐的临时挑战，接受前不落库
type ChallengeSuggestion struct {
	Title         string           `json:"title" binding:"required"`
	Description   string           `json:"description" binding:"required"`
	Difficulty    model.Difficulty `json:"difficulty" binding:"required"`
	Category      string           `json:"category"`
	SkillsUsed    []string         `json:"skillsUsed"`
	XP            int              `json:"xp"`
	EstimatedTime string           `json:"estimatedTime"`
}

// AIService 组装提示词并通过预测服务获取结构化结果
type AIService struct {
	Provider llm.Provider
}

func NewAIService(provider llm.Provider) *AIService {
	return &AIService{Provider: provider}
}

func projectTypeInstruction(t model.ProjectType) string {
	if t == model.ProjectMicro {
		return "The project must be a 'Micro-Project'. This means it should be a small, focused challenge that can be completed in under an hour."
	}
	return "The project must be a 'Real-World Project'. This means it should be a comprehensive, portfolio-worthy application."
}

// BuildProjectPrompt 项目生成提示词，包含项目类型与自适应难度指令
func BuildProjectPrompt(skills []string, projectType model.ProjectType, difficultyInstruction string) string {
	var b strings.Builder
	b.WriteString("Your task is to generate a project brief.\n\n")
	fmt.Fprintf(&b, "The user's skills are: %s.\n", strings.Join(skills, ", "))
	fmt.Fprintf(&b, "Project Type Instructions: %s\n\n", projectTypeInstruction(projectType))
	fmt.Fprintf(&b, "Adaptive Difficulty:\n%s\n\n", difficultyInstruction)
	b.WriteString("Return a JSON object with: \"title\" (a creative project title), ")
	b.WriteString("\"description\" (a one-paragraph summary), ")
	b.WriteString("\"milestones\" (4-6 actionable steps), ")
	b.WriteString("\"skillsUsed\" (3-5 key skills from the user's list that are most relevant, as simple strings).")
	return b.String()
}

func (s *AIService) GenerateProjectBrief(ctx context.Context, skills []string, projectType model.ProjectType, rating int) (*ProjectBrief, error) {
	prompt := BuildProjectPrompt(skills, projectType, DeriveDifficultyInstruction(rating))

	var brief ProjectBrief
	if err := llm.GenerateInto(ctx, s.Provider, llm.UserPrompt(systemPrompt, prompt, ProjectBriefSchema), &brief); err != nil {
		return nil, fmt.Errorf("generate project brief: %w", err)
	}
	return &brief, nil
}

func (s *AIService) GenerateChallengeBrief(ctx context.Context, skills []string, difficulty model.Difficulty) (*ChallengeBrief, error) {
	prompt := fmt.Sprintf(
		"Generate a single, focused coding challenge based on the user's skills and the chosen difficulty.\n\n"+
			"User's skills: %s.\nDifficulty: %s (expected effort %s).\n\n"+
			"Return a JSON object with: \"title\" (short and engaging), \"description\" (a one-paragraph summary of the task and goal), "+
			"\"category\" (e.g. 'Web Dev', 'AI', 'Data Structures'), \"skillsUsed\" (2-4 key skills from the user's list).",
		strings.Join(skills, ", "), difficulty, difficulty.EstimatedTime(),
	)

	var brief ChallengeBrief
	if err := llm.GenerateInto(ctx, s.Provider, llm.UserPrompt(systemPrompt, prompt, ChallengeBriefSchema), &brief); err != nil {
		return nil, fmt.Errorf("generate challenge brief: %w", err)
	}
	return &brief, nil
}

func (s *AIService) SuggestDailyChallenges(ctx context.Context, topSkills []string) ([]ChallengeSuggestion, error) {
	prompt := fmt.Sprintf(
		"Generate exactly 3 unique, short and engaging coding challenges for a user based on their top skills.\n"+
			"The user's top skills are: %s.\nThe challenges should vary in difficulty (Beginner, Intermediate).\n"+
			"Return a JSON object with a single key \"challenges\": an array of 3 objects, each with "+
			"\"title\", \"description\" (one sentence), \"difficulty\", \"category\" and \"skillsUsed\".",
		strings.Join(topSkills, ", "),
	)

	var out struct {
		Challenges []ChallengeSuggestion `json:"challenges"`
	}
	if err := llm.GenerateInto(ctx, s.Provider, llm.UserPrompt(systemPrompt, prompt, DailyChallengesSchema), &out); err != nil {
		return nil, fmt.Errorf("suggest daily challenges: %w", err)
	}
	return out.Challenges, nil
}

func (s *AIService) ReviewProject(ctx context.Context, project *model.Project, evidence string) (*model.Feedback, error) {
	prompt := fmt.Sprintf(
		"You are a senior developer and expert code reviewer. Provide feedback on a project submission.\n\n"+
			"Project Title: %s\nProject Description: %s\n\n"+
			"Here is the content of the submitted files:\n---\n%s\n---\n\n"+
			"Provide a constructive review based on the actual code. Focus on correctness, code quality and best practices. "+
			"Then rate the overall quality, completeness and correctness from 1 (Beginner) to 5 (Expert).\n"+
			"Return a JSON object with: \"overall\" (one paragraph), \"strengths\" (2-3 items), "+
			"\"areasForImprovement\" (2-3 actionable items), \"score\" (integer 1-5).",
		project.Title, project.Description, evidence,
	)

	var fb model.Feedback
	if err := llm.GenerateInto(ctx, s.Provider, llm.UserPrompt(systemPrompt, prompt, ReviewSchema), &fb); err != nil {
		return nil, fmt.Errorf("review project: %w", err)
	}
	return &fb, nil
}

func (s *AIService) ProjectHint(ctx context.Context, project *model.Project) (string, error) {
	var next string
	for _, m := range project.Milestones.Data() {
		if !m.Completed {
			next = m.Text
			break
		}
	}

	prompt := fmt.Sprintf(
		"A user is working on a project and has asked for a hint.\n\nProject Title: %q\nProject Description: %q\n",
		project.Title, project.Description,
	)
	if next != "" {
		prompt += fmt.Sprintf("Their next unfinished milestone is: %q\n", next)
	}
	prompt += "\nProvide a single, concise and actionable hint (one or two sentences) to help them move to the next step. " +
		"Do not provide a full solution. Return a JSON object with a single key \"hint\"."

	var out struct {
		Hint string `json:"hint"`
	}
	if err := llm.GenerateInto(ctx, s.Provider, llm.UserPrompt(systemPrompt, prompt, HintSchema), &out); err != nil {
		return "", fmt.Errorf("project hint: %w", err)
	}
	return out.Hint, nil
}
