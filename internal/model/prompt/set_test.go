package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/interviewfriend/relay/backend/internal/model/chat"
)

func TestDefaultsAreEmbedded(t *testing.T) {
	set := Defaults()

	assert.Contains(t, set.Interviewee, "expert, friendly interviewer")
	assert.Contains(t, set.Candidate, "simulating a job candidate")
	assert.NotContains(t, set.Interviewee, "\n\n")
}

func TestForRoleKeepsCrossMapping(t *testing.T) {
	set := Set{Interviewee: "asks questions", Candidate: "answers questions"}

	assert.Equal(t, "asks questions", set.ForRole(chat.RoleInterviewee))
	assert.Equal(t, "answers questions", set.ForRole(chat.RoleInterviewer))
}
