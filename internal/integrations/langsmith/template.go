package langsmith

// Kind tags the shape of a pulled prompt manifest.
type Kind int

const (
	KindUnknown Kind = iota
	// KindString is a plain PromptTemplate.
	KindString
	// KindChat is a ChatPromptTemplate whose first message wraps a PromptTemplate.
	KindChat
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindChat:
		return "chat"
	default:
		return "unknown"
	}
}

// Template is the classified result of a pull. Text is empty for KindUnknown.
type Template struct {
	Kind Kind
	Text string
	// Type is the last segment of the manifest constructor id, kept for logs.
	Type string
}

// manifest is a LangChain serialized constructor:
// {"lc":1,"type":"constructor","id":[...,"PromptTemplate"],"kwargs":{...}}.
type manifest struct {
	ID     []string       `json:"id"`
	Kwargs manifestKwargs `json:"kwargs"`
}

type manifestKwargs struct {
	Template *string           `json:"template"`
	Messages []messageManifest `json:"messages"`
}

type messageManifest struct {
	ID     []string `json:"id"`
	Kwargs struct {
		Prompt *manifest `json:"prompt"`
	} `json:"kwargs"`
}

func (m manifest) typeName() string {
	if len(m.ID) == 0 {
		return ""
	}
	return m.ID[len(m.ID)-1]
}

func classify(m manifest) Template {
	typeName := m.typeName()

	switch typeName {
	case "PromptTemplate":
		if m.Kwargs.Template != nil {
			return Template{Kind: KindString, Text: *m.Kwargs.Template, Type: typeName}
		}
	case "ChatPromptTemplate":
		if len(m.Kwargs.Messages) == 0 {
			break
		}
		inner := m.Kwargs.Messages[0].Kwargs.Prompt
		if inner != nil && inner.typeName() == "PromptTemplate" && inner.Kwargs.Template != nil {
			return Template{Kind: KindChat, Text: *inner.Kwargs.Template, Type: typeName}
		}
	}

	return Template{Kind: KindUnknown, Type: typeName}
}
