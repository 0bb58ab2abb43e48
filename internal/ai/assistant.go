package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pawhaven/rescuedesk/internal/store"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// StreamChunk represents a piece of the AI response being streamed back.
type StreamChunk struct {
	Text string
	Done bool
}

// Assistant is the AI assistant service that communicates with the Claude API,
// manages conversation context, and handles tool use for pet queries. All
// tools are read-only: the assistant can search and summarize the local pet
// cache but never mutates anything.
type Assistant struct {
	apiKey    string
	store     store.Store
	context   *ConversationContext
	model     string
	maxTokens int
	client    *http.Client
}

// New creates a new AI assistant with the given configuration.
func New(
	apiKey string,
	s store.Store,
	modelName string,
	maxTokens int,
) *Assistant {
	if modelName == "" {
		modelName = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Assistant{
		apiKey:    apiKey,
		store:     s,
		context:   NewConversationContext(),
		model:     modelName,
		maxTokens: maxTokens,
		client:    &http.Client{},
	}
}

// Reset clears the conversation history.
func (a *Assistant) Reset() {
	a.context.Reset()
}

// SendMessage sends a user message to the Claude API and returns a channel
// that receives response chunks. The channel is closed when the response
// is complete.
func (a *Assistant) SendMessage(
	ctx context.Context,
	userMsg string,
) (<-chan StreamChunk, error) {
	a.context.AddMessage(RoleUser, userMsg, nil)

	ch := make(chan StreamChunk, 16)

	go func() {
		defer close(ch)
		a.processMessage(ctx, ch)
	}()

	return ch, nil
}

// processMessage handles the API call loop, including tool use iterations.
func (a *Assistant) processMessage(ctx context.Context, ch chan<- StreamChunk) {
	maxToolIterations := 5

	for i := 0; i < maxToolIterations; i++ {
		resp, err := a.callAPI(ctx)
		if err != nil {
			ch <- StreamChunk{
				Text: fmt.Sprintf("Error: %v", err),
				Done: true,
			}
			return
		}

		var textParts []string
		var toolUseBlocks []apiToolUse
		hasToolUse := false

		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textParts = append(textParts, block.Text)
			case "tool_use":
				hasToolUse = true
				toolUseBlocks = append(toolUseBlocks, apiToolUse{
					ID:    block.ID,
					Name:  block.Name,
					Input: block.Input,
				})
			}
		}

		// Send any text content to the UI
		if len(textParts) > 0 {
			combined := strings.Join(textParts, "")
			ch <- StreamChunk{Text: combined, Done: !hasToolUse}

			if !hasToolUse {
				a.context.AddMessage(RoleAssistant, combined, nil)
				return
			}
		}

		if !hasToolUse {
			if len(textParts) == 0 {
				ch <- StreamChunk{Text: "", Done: true}
			}
			return
		}

		// Record the assistant's response (with tool use) in context
		assistantContent, err := json.Marshal(resp.Content)
		if err != nil {
			ch <- StreamChunk{
				Text: fmt.Sprintf("Error encoding response: %v", err),
				Done: true,
			}
			return
		}
		a.context.AddMessage(RoleAssistant, string(assistantContent), nil)

		// Process each tool use and build tool results, tracking which
		// pets came up so later turns can refer back to them.
		var toolResults []apiContentBlock
		var petRefs []int64
		for _, tu := range toolUseBlocks {
			result, refs := a.executeToolUse(ctx, tu)
			petRefs = append(petRefs, refs...)
			toolResults = append(toolResults, apiContentBlock{
				Type:      "tool_result",
				ToolUseID: tu.ID,
				Content:   result,
			})
		}

		// Add tool results as a user message
		toolResultsJSON, err := json.Marshal(toolResults)
		if err != nil {
			ch <- StreamChunk{
				Text: fmt.Sprintf("Error encoding tool results: %v", err),
				Done: true,
			}
			return
		}
		a.context.AddMessage(RoleUser, string(toolResultsJSON), petRefs)
	}

	ch <- StreamChunk{
		Text: "\n\n(Reached maximum tool use iterations)",
		Done: true,
	}
}

// callAPI makes a single request to the Claude Messages API.
func (a *Assistant) callAPI(ctx context.Context) (*apiResponse, error) {
	systemPrompt := a.buildSystemPrompt(ctx)
	messages := a.buildAPIMessages()

	reqBody := apiRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    systemPrompt,
		Messages:  messages,
		Tools:     toolDefinitions(),
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, apiURL, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// buildSystemPrompt constructs the system prompt with shelter context.
func (a *Assistant) buildSystemPrompt(ctx context.Context) string {
	var sb strings.Builder

	sb.WriteString("You are an assistant for a pet rescue coordination ")
	sb.WriteString("service. You help volunteers find and summarize ")
	sb.WriteString("adoptable pets.\n\n")

	summary := a.buildPetSummary(ctx)
	if summary != "" {
		sb.WriteString("Current listing data:\n")
		sb.WriteString(summary)
		sb.WriteString("\n\n")
	}

	if refs := a.context.RecentPetRefs(5); len(refs) > 0 {
		sb.WriteString("Pet IDs discussed recently (most recent first): ")
		for i, id := range refs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%d", id))
		}
		sb.WriteString("\n\n")
	}

	sb.WriteString("You have access to these tools:\n")
	sb.WriteString("- search_pets: Search pets by name, breed, or description\n")
	sb.WriteString("- get_pet_detail: Get full details for a specific pet ")
	sb.WriteString("by its ID\n\n")

	sb.WriteString("IMPORTANT: You CANNOT perform write operations ")
	sb.WriteString("(adoption applications, status changes, or listing edits). ")
	sb.WriteString("If asked to perform a write action, politely explain that ")
	sb.WriteString("you can only search and summarize, and that adoptions are ")
	sb.WriteString("coordinated through shelter staff.\n\n")

	sb.WriteString("When referencing pets, include their ID and name. ")
	sb.WriteString("Keep responses concise and focused.")

	return sb.String()
}

// buildPetSummary queries the local cache for pet counts by species and status.
func (a *Assistant) buildPetSummary(ctx context.Context) string {
	pets, err := a.store.Pets(ctx)
	if err != nil || len(pets) == 0 {
		return "No pet listings available."
	}

	speciesCounts := make(map[string]int)
	statusCounts := make(map[string]int)

	for _, p := range pets {
		speciesCounts[p.Species]++
		statusCounts[p.Status]++
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total pets: %d\n", len(pets)))

	sb.WriteString("By species: ")
	first := true
	for species, count := range speciesCounts {
		if !first {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s=%d", species, count))
		first = false
	}
	sb.WriteString("\n")

	sb.WriteString("By status: ")
	first = true
	for status, count := range statusCounts {
		if !first {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s=%d", status, count))
		first = false
	}

	return sb.String()
}

// buildAPIMessages converts the conversation context into the Claude API
// message format. Messages with JSON content blocks (from tool use) are
// sent as structured content; plain text messages are sent as-is.
func (a *Assistant) buildAPIMessages() []apiMessage {
	contextMsgs := a.context.GetMessages()
	var messages []apiMessage

	for _, msg := range contextMsgs {
		// Check if this is a structured content message (tool use/results)
		if isJSONArray(msg.Content) {
			var blocks []apiContentBlock
			if err := json.Unmarshal(
				[]byte(msg.Content), &blocks,
			); err == nil {
				messages = append(messages, apiMessage{
					Role:    string(msg.Role),
					Content: blocks,
				})
				continue
			}
		}

		messages = append(messages, apiMessage{
			Role: string(msg.Role),
			Content: []apiContentBlock{
				{Type: "text", Text: msg.Content},
			},
		})
	}

	return messages
}

// executeToolUse runs a tool requested by the AI. It returns the result
// payload plus the IDs of any pets the tool touched.
func (a *Assistant) executeToolUse(
	ctx context.Context,
	tu apiToolUse,
) (string, []int64) {
	// Read-only guard: reject any write-like tool names
	writeTools := map[string]bool{
		"adopt_pet":      true,
		"update_pet":     true,
		"delete_pet":     true,
		"create_listing": true,
		"apply":          true,
	}
	if writeTools[tu.Name] {
		return `{"error": "Write operations are not permitted. ` +
			`Adoptions and listing changes go through shelter staff."}`, nil
	}

	switch tu.Name {
	case "search_pets":
		return a.handleSearchPets(ctx, tu.Input)
	case "get_pet_detail":
		return a.handleGetPetDetail(ctx, tu.Input)
	default:
		return fmt.Sprintf(
			`{"error": "Unknown tool: %s"}`, tu.Name,
		), nil
	}
}

// handleSearchPets queries the cache with the provided search parameters.
func (a *Assistant) handleSearchPets(
	ctx context.Context,
	input json.RawMessage,
) (string, []int64) {
	var params struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}

	if err := json.Unmarshal(input, &params); err != nil {
		return fmt.Sprintf(`{"error": "Invalid parameters: %v"}`, err), nil
	}

	pets, err := a.store.SearchPets(ctx, params.Query, params.Limit)
	if err != nil {
		return fmt.Sprintf(`{"error": "Search failed: %v"}`, err), nil
	}

	type petSummary struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Species  string `json:"species"`
		Breed    string `json:"breed"`
		Status   string `json:"status"`
		ListedAt string `json:"listed_at"`
	}

	summaries := make([]petSummary, 0, len(pets))
	refs := make([]int64, 0, len(pets))
	for _, p := range pets {
		refs = append(refs, p.ID)
		summaries = append(summaries, petSummary{
			ID:       p.ID,
			Name:     p.Name,
			Species:  p.Species,
			Breed:    p.Breed,
			Status:   p.Status,
			ListedAt: p.ListedAt.Format("2006-01-02"),
		})
	}

	result, err := json.Marshal(map[string]interface{}{
		"count": len(summaries),
		"pets":  summaries,
	})
	if err != nil {
		return fmt.Sprintf(`{"error": "Failed to encode results: %v"}`, err), nil
	}

	return string(result), refs
}

// handleGetPetDetail retrieves full details for a specific pet.
func (a *Assistant) handleGetPetDetail(
	ctx context.Context,
	input json.RawMessage,
) (string, []int64) {
	var params struct {
		PetID int64 `json:"pet_id"`
	}

	if err := json.Unmarshal(input, &params); err != nil {
		return fmt.Sprintf(`{"error": "Invalid parameters: %v"}`, err), nil
	}

	if params.PetID == 0 {
		return `{"error": "pet_id is required"}`, nil
	}

	pet, err := a.store.GetPetByID(ctx, params.PetID)
	if err != nil {
		return fmt.Sprintf(`{"error": "Pet not found: %v"}`, err), nil
	}
	if pet == nil {
		return `{"error": "Pet not found"}`, nil
	}

	type petDetail struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Species     string `json:"species"`
		Breed       string `json:"breed"`
		Status      string `json:"status"`
		Description string `json:"description"`
		ListedAt    string `json:"listed_at"`
	}

	detail := petDetail{
		ID:          pet.ID,
		Name:        pet.Name,
		Species:     pet.Species,
		Breed:       pet.Breed,
		Status:      pet.Status,
		Description: pet.Description,
		ListedAt:    pet.ListedAt.Format("2006-01-02 15:04"),
	}

	result, err := json.Marshal(detail)
	if err != nil {
		return fmt.Sprintf(`{"error": "Failed to encode pet: %v"}`, err), nil
	}

	return string(result), []int64{pet.ID}
}

// isJSONArray returns true if the string starts with '['.
func isJSONArray(s string) bool {
	trimmed := strings.TrimSpace(s)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
	Tools     []apiTool    `json:"tools,omitempty"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	// Common fields
	Type string `json:"type"`

	// For text blocks
	Text string `json:"text,omitempty"`

	// For tool_use blocks
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// For tool_result blocks
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type apiToolUse struct {
	ID    string
	Name  string
	Input json.RawMessage
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// toolDefinitions returns the tool specifications for the Claude API.
func toolDefinitions() []apiTool {
	return []apiTool{
		{
			Name: "search_pets",
			Description: "Search adoptable pets by name, breed, or " +
				"description text. Returns matching pets with key details.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {
						"type": "string",
						"description": "Search text to match against pet names, breeds, and descriptions"
					},
					"limit": {
						"type": "integer",
						"minimum": 1,
						"maximum": 50,
						"description": "Maximum number of results to return"
					}
				}
			}`),
		},
		{
			Name:        "get_pet_detail",
			Description: "Get full details for a specific pet by its ID.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"pet_id": {
						"type": "integer",
						"description": "The unique pet ID"
					}
				},
				"required": ["pet_id"]
			}`),
		},
	}
}
