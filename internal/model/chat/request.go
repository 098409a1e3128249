package chat

// RequestRole selects the persona the model should adopt.
type RequestRole string

const (
	RoleInterviewer RequestRole = "interviewer"
	RoleInterviewee RequestRole = "interviewee"
)

// Valid reports whether r is one of the recognized request roles.
func (r RequestRole) Valid() bool {
	return r == RoleInterviewer || r == RoleInterviewee
}

// Request is a validated chat request. Messages keeps the raw history;
// normalization happens when the completion is built.
type Request struct {
	Role     RequestRole
	Messages []RawMessage
}

// LatestUserMessage returns the content of the final history entry, which
// validation guarantees was authored by the user.
func (r Request) LatestUserMessage() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}
