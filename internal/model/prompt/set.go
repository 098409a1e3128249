package prompt

import (
	_ "embed"
	"strings"

	"github.com/interviewfriend/relay/backend/internal/model/chat"
)

var (
	//go:embed defaults/interviewee.txt
	defaultInterviewee string

	//go:embed defaults/candidate.txt
	defaultCandidate string
)

// Registry names under which the interview prompts are published.
const (
	DefaultIntervieweeName = "system_prompt_interviewee_1"
	DefaultCandidateName   = "system_prompt_candidate_1"
)

// Set holds the system prompts shared by every request. It is built once at
// startup and passed by value afterwards.
type Set struct {
	// Interviewee is the prompt selected for role=interviewee. Its text
	// instructs the model to act as the interviewer.
	Interviewee string
	// Candidate is the prompt selected for role=interviewer.
	Candidate string
}

// Defaults returns the embedded prompts used when the registry is unavailable.
func Defaults() Set {
	return Set{
		Interviewee: strings.TrimSpace(defaultInterviewee),
		Candidate:   strings.TrimSpace(defaultCandidate),
	}
}

// ForRole returns the system prompt for a request role. The pairing is
// interviewee→Interviewee and interviewer→Candidate; clients depend on it.
func (s Set) ForRole(role chat.RequestRole) string {
	if role == chat.RoleInterviewee {
		return s.Interviewee
	}
	return s.Candidate
}
