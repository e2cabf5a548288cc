package recommend

import (
	"fmt"
	"strings"

	"github.com/taratrabaho/jobboard-api/internal/domain"
)

const notSpecified = "Not specified"

func buildPrompt(p domain.ResumeProfile, jobs []domain.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an AI job matching expert. Analyze the user's profile and recommend the TOP %d most suitable jobs from the list below.\n\n", Limit)
	b.WriteString("User Profile:\n")
	fmt.Fprintf(&b, "- Skills: %s\n", orDefault(strings.Join(p.Skills, ", ")))
	fmt.Fprintf(&b, "- Experience: %s\n", orDefault(string(p.Experience)))
	fmt.Fprintf(&b, "- Education: %s\n", orDefault(string(p.Education)))
	fmt.Fprintf(&b, "- Career Objective: %s\n", orDefault(p.Objective))
	fmt.Fprintf(&b, "- Summary: %s\n\n", orDefault(p.Summary))

	fmt.Fprintf(&b, "Available Jobs (%d total):\n", len(jobs))
	for i, j := range jobs {
		fmt.Fprintf(&b, "\n%d. Job ID: %s\n   Title: %s\n   Company: %s\n   Type: %s\n   Location: %s\n   Tags: %s\n   Description: %s\n",
			i+1, j.JobID, j.Title, j.Company, j.Type, j.Location, strings.Join(j.Tags, ", "), j.Description)
	}

	fmt.Fprintf(&b, "\nIMPORTANT:\n- Return ONLY a JSON array of at most %d job IDs as strings, in order of best match\n", Limit)
	b.WriteString("- Format: [\"job_id1\", \"job_id2\", \"job_id3\", \"job_id4\", \"job_id5\"]\n")
	fmt.Fprintf(&b, "- If fewer than %d jobs exist, return all available job IDs\n", Limit)
	b.WriteString("- Consider skills match, experience level, education requirements, and career goals\n")
	b.WriteString("\nReturn ONLY the JSON array, no explanation.")
	return b.String()
}

func orDefault(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || s == "[]" {
		return notSpecified
	}
	return s
}
