package projector

import "github.com/agentwire/relay/pkg/stream"

// toolState tracks everything known about a single tool call. Created on
// first observation; tool type may only transition function → agent.
type toolState struct {
	toolType    stream.ToolType
	outputIndex *int
	toolName    string
	serverLabel string
	agentName   string
	lastStatus  string

	// argumentsText accumulates raw argument deltas until the done frame.
	argumentsText string

	// web search
	query   *string
	sources []string

	// file search
	fileSearchQueries []string
	fileSearchResults []stream.FileSearchResult

	// code interpreter
	containerID   *string
	containerMode *string

	// image generation
	imageFormat        *string
	imageSize          *string
	imageQuality       *string
	imageBackground    *string
	imageRevisedPrompt *string
	imagePartialIndex  *int
}

// payload builds the typed per-tool payload for tool.status events.
func (t *toolState) payload() any {
	switch t.toolType {
	case stream.ToolTypeWebSearch:
		return stream.WebSearchToolPayload{Query: t.query, Sources: t.sources}
	case stream.ToolTypeFileSearch:
		return stream.FileSearchToolPayload{Queries: t.fileSearchQueries, Results: t.fileSearchResults}
	case stream.ToolTypeCodeInterpreter:
		return stream.CodeInterpreterToolPayload{ContainerID: t.containerID, ContainerMode: t.containerMode}
	case stream.ToolTypeImageGeneration:
		return stream.ImageGenerationToolPayload{
			Format:            t.imageFormat,
			Size:              t.imageSize,
			Quality:           t.imageQuality,
			Background:        t.imageBackground,
			RevisedPrompt:     t.imageRevisedPrompt,
			PartialImageIndex: t.imagePartialIndex,
		}
	case stream.ToolTypeAgent:
		return stream.AgentToolPayload{Name: t.toolName, AgentName: t.agentName}
	case stream.ToolTypeMCP:
		var name, label *string
		if t.toolName != "" {
			name = strptr(t.toolName)
		}
		if t.serverLabel != "" {
			label = strptr(t.serverLabel)
		}
		return stream.MCPToolPayload{Name: name, ServerLabel: label}
	default:
		return stream.FunctionToolPayload{Name: t.toolName}
	}
}

// addSource appends a source URL unless already recorded. Reports whether
// the list changed.
func (t *toolState) addSource(url string) bool {
	if url == "" {
		return false
	}
	for _, existing := range t.sources {
		if existing == url {
			return false
		}
	}
	t.sources = append(t.sources, url)
	return true
}

// projectionState holds the mutable per-scope projection state. The monotonic
// event ID counter, attachments, and the terminal flag live on the Projector:
// they are authoritative on the top-level scope and shared with sub-scopes.
type projectionState struct {
	lifecycleStatus      string // "" until the first lifecycle event
	reasoningSummaryText string
	refusalText          string

	toolState               map[string]*toolState
	lastWebSearchToolCallID string
	currentAgent            string // "" until the first agent update
	handoffCount            uint32
}

func newProjectionState() *projectionState {
	return &projectionState{toolState: make(map[string]*toolState)}
}

// tool returns the state for a tool call ID, creating it with the given type
// on first observation. An existing function tool may be upgraded to agent;
// every other type transition is ignored.
func (s *projectionState) tool(toolCallID string, toolType stream.ToolType) *toolState {
	if st, ok := s.toolState[toolCallID]; ok {
		if st.toolType == stream.ToolTypeFunction && toolType == stream.ToolTypeAgent {
			st.toolType = stream.ToolTypeAgent
		}
		return st
	}
	st := &toolState{toolType: toolType}
	s.toolState[toolCallID] = st
	return st
}

// lookupTool returns existing tool state without creating it.
func (s *projectionState) lookupTool(toolCallID string) (*toolState, bool) {
	st, ok := s.toolState[toolCallID]
	return st, ok
}
