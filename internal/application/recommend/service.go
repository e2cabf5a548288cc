package recommend

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/taratrabaho/jobboard-api/internal/application/job"
	"github.com/taratrabaho/jobboard-api/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Limit is the number of jobs returned per recommendation.
const Limit = 5

var (
	errPromptRequired = domain.NewError(domain.ErrBadRequest, "Prompt is required")
	errAIUnavailable  = domain.NewError(domain.ErrDelivery, "AI service is unavailable")

	idArray = regexp.MustCompile(`\[[^\[\]]*\]`)
	printer = message.NewPrinter(language.English)
)

// Recommendation is a job as shown on the recommendations panel.
type Recommendation struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Type        string   `json:"type"`
	Salary      string   `json:"salary"`
	Posted      string   `json:"posted"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	VacantLeft  string   `json:"vacantleft"`
	Remote      bool     `json:"remote"`
	MinSalary   int      `json:"min_salary"`
	MaxSalary   int      `json:"max_salary"`
}

type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	TotalJobs       int              `json:"totalJobs"`
	HasResume       bool             `json:"hasResume"`
}

type Service interface {
	Recommend(ctx context.Context, actor domain.Actor) (*Result, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

type jobStore interface {
	List(ctx context.Context) ([]domain.Job, error)
}

type chatStore interface {
	LatestWithResume(ctx context.Context, userID string) (*domain.Chat, error)
}

type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type service struct {
	jobs  jobStore
	chats chatStore
	ai    generator
}

// ServiceDeps wires the recommendation service. AI may be nil, in which case
// recommendations fall back to the newest jobs.
type ServiceDeps struct {
	JobRepo  jobStore
	ChatRepo chatStore
	AI       generator
}

func NewService(deps ServiceDeps) Service {
	return &service{jobs: deps.JobRepo, chats: deps.ChatRepo, ai: deps.AI}
}

func (s *service) Recommend(ctx context.Context, actor domain.Actor) (*Result, error) {
	chat, err := s.chats.LatestWithResume(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	profile := profileFrom(chat)

	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{Recommendations: []Recommendation{}, TotalJobs: len(jobs), HasResume: chat != nil}
	if len(jobs) == 0 {
		return res, nil
	}
	job.SortNewestFirst(jobs)

	picked := s.pick(ctx, actor.UserID, profile, jobs)
	for i := range picked {
		res.Recommendations = append(res.Recommendations, view(&picked[i]))
	}
	return res, nil
}

func (s *service) pick(ctx context.Context, userID string, profile domain.ResumeProfile, jobs []domain.Job) []domain.Job {
	fallback := jobs[:min(Limit, len(jobs))]
	if s.ai == nil {
		return fallback
	}
	out, err := s.ai.Generate(ctx, buildPrompt(profile, jobs))
	if err != nil {
		slog.Warn("recommendation model call failed", "user_id", userID, "err", err)
		return fallback
	}
	ids, ok := ParseIDs(out)
	if !ok {
		slog.Warn("unparsable recommendation output", "user_id", userID)
		return fallback
	}
	picked := Select(ids, jobs)
	if len(picked) == 0 {
		return fallback
	}
	return picked
}

func (s *service) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errPromptRequired
	}
	if s.ai == nil {
		return "", errAIUnavailable
	}
	out, err := s.ai.Generate(ctx, prompt)
	if err != nil {
		slog.Error("model call failed", "err", err)
		return "", errAIUnavailable
	}
	return out, nil
}

// ParseIDs extracts the first bracketed JSON array of strings from model
// output, tolerating surrounding prose and code fences.
func ParseIDs(out string) ([]string, bool) {
	raw := idArray.FindString(out)
	if raw == "" {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false
	}
	return ids, true
}

// Select maps ids to known jobs in order, dropping unknown and repeated ids,
// and keeps at most Limit.
func Select(ids []string, jobs []domain.Job) []domain.Job {
	byID := make(map[string]int, len(jobs))
	for i := range jobs {
		byID[jobs[i].JobID] = i
	}
	seen := make(map[string]bool, len(ids))
	var out []domain.Job
	for _, id := range ids {
		i, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, jobs[i])
		if len(out) == Limit {
			break
		}
	}
	return out
}

// SalaryLabel renders a salary range as "₱12,000 - ₱15,000".
func SalaryLabel(minSalary, maxSalary int) string {
	return printer.Sprintf("₱%d - ₱%d", minSalary, maxSalary)
}

func view(j *domain.Job) Recommendation {
	tags := j.Tags
	if tags == nil {
		tags = []string{}
	}
	return Recommendation{
		ID:          j.JobID,
		Title:       j.Title,
		Company:     j.Company,
		Location:    j.Location,
		Type:        j.Type,
		Salary:      SalaryLabel(j.MinSalary, j.MaxSalary),
		Posted:      j.Posted,
		Description: j.Description,
		Tags:        tags,
		VacantLeft:  printer.Sprintf("%d Vacancies Left", j.VacantLeft),
		Remote:      j.Remote,
		MinSalary:   j.MinSalary,
		MaxSalary:   j.MaxSalary,
	}
}

func profileFrom(c *domain.Chat) domain.ResumeProfile {
	var p domain.ResumeProfile
	if c == nil || len(c.ResumeData) == 0 {
		return p
	}
	if err := json.Unmarshal(c.ResumeData, &p); err != nil {
		slog.Warn("unreadable resume data", "chat_id", c.ChatID, "err", err)
		return domain.ResumeProfile{}
	}
	return p
}
