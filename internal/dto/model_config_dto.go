package dto

type ModelConfigResponse struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	BaseURL     string  `json:"base_url,omitempty"`
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k"`
}

type UpdateModelConfigRequest struct {
	Provider    string  `json:"provider" validate:"required,oneof=ollama openai anthropic gemini"`
	Model       string  `json:"model" validate:"required"`
	BaseURL     string  `json:"base_url" validate:"omitempty,url"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=2"`
	TopK        int     `json:"top_k" validate:"gte=1,lte=50"`
}

// TurnArchiveMessage is the payload the chat service publishes for the archive consumer.
type TurnArchiveMessage struct {
	Type       string `json:"type"`
	SessionId  string `json:"session_id"`
	UserId     string `json:"user_id"`
	DocumentId string `json:"document_id"`
	TurnId     string `json:"turn_id"`
	Query      string `json:"query"`
	Content    string `json:"content"`
	RawContent string `json:"raw_content"`
	CitedIds   []int  `json:"cited_ids"`
	Reason     string `json:"reason"`
	OccurredAt string `json:"occurred_at"`
}
