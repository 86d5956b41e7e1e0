package model

import "time"

// Assistant is an AI assistant that owns memories.
type Assistant struct {
	AssistantID  string    `json:"assistantId"`
	Name         string    `json:"name"`
	Personality  *string   `json:"personality,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreationTime time.Time `json:"creationTime"`
	UpdateTime   time.Time `json:"updateTime"`
}

// Memory is a stored unit of text content owned by one assistant.
// Importance is on a 1-10 scale. SharedCategory is set iff IsShared is true.
type Memory struct {
	MemoryID       string     `json:"memoryId"`
	AssistantID    string     `json:"assistantId"`
	Content        string     `json:"content"`
	Summary        *string    `json:"summary,omitempty"`
	MemoryType     string     `json:"memoryType"`
	Importance     int        `json:"importance"`
	Tags           []string   `json:"tags,omitempty"`
	Source         *string    `json:"source,omitempty"`
	Context        *string    `json:"context,omitempty"`
	IsShared       bool       `json:"isShared"`
	SharedCategory *string    `json:"sharedCategory,omitempty"`
	AccessCount    int        `json:"accessCount"`
	CreationTime   time.Time  `json:"creationTime"`
	UpdateTime     time.Time  `json:"updateTime"`
	AccessTime     *time.Time `json:"accessTime,omitempty"`
}

// MemoryEmbedding is one stored vector for a memory. A memory may carry
// several embeddings when its content was chunked before embedding.
type MemoryEmbedding struct {
	EmbeddingID  string    `json:"embeddingId"`
	MemoryID     string    `json:"memoryId"`
	Vector       []float32 `json:"vector"`
	Model        string    `json:"model"`
	CreationTime time.Time `json:"creationTime"`
}

// EmbeddedMemory pairs a memory with one of its stored embeddings.
type EmbeddedMemory struct {
	Memory    *Memory
	Embedding *MemoryEmbedding
}

// SearchMode selects the retrieval strategy.
type SearchMode string

const (
	SearchKeyword  SearchMode = "keyword"
	SearchSemantic SearchMode = "semantic"
	SearchHybrid   SearchMode = "hybrid"
)

// MatchType records which engine(s) produced a search result.
type MatchType string

const (
	MatchKeyword  MatchType = "keyword"
	MatchSemantic MatchType = "semantic"
	MatchBoth     MatchType = "both"
)

// SearchRequest is the input to a search. It is transient: constructed per
// request and never persisted.
type SearchRequest struct {
	Query         string     `json:"query"`
	AssistantID   string     `json:"assistantId,omitempty"`
	MemoryType    string     `json:"memoryType,omitempty"`
	SearchType    SearchMode `json:"searchType,omitempty"`
	Limit         int        `json:"limit,omitempty"`
	MinImportance int        `json:"minImportance,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	IncludeShared bool       `json:"includeShared"`
	DateFrom      *time.Time `json:"dateFrom,omitempty"`
	DateTo        *time.Time `json:"dateTo,omitempty"`
}

// SearchResult is one ranked hit. Score is always within [0,1].
type SearchResult struct {
	Memory    *Memory   `json:"memory"`
	Score     float64   `json:"score"`
	MatchType MatchType `json:"matchType"`
	Highlight string    `json:"highlight,omitempty"`
}

// SearchResponse is the full result of one search operation.
type SearchResponse struct {
	Results         []SearchResult `json:"results"`
	TotalCount      int            `json:"totalCount"`
	ExecutionTimeMs float64        `json:"executionTimeMs"`
	SearchType      SearchMode     `json:"searchType"`
	Query           string         `json:"query"`
}

// SearchLog is the analytics record written once per completed search.
type SearchLog struct {
	LogID           string     `json:"logId"`
	AssistantID     *string    `json:"assistantId,omitempty"`
	Query           string     `json:"query"`
	SearchType      SearchMode `json:"searchType"`
	ResultCount     int        `json:"resultCount"`
	ExecutionTimeMs float64    `json:"executionTimeMs"`
	CreationTime    time.Time  `json:"creationTime"`
}

// MemoryFilter captures the candidate constraints shared by listing and both
// search engines. Keywords, when present, require a case-insensitive
// substring match on content, summary, or tags for at least one keyword.
// Limit <= 0 means unbounded.
type MemoryFilter struct {
	AssistantID   string
	IncludeShared bool
	MemoryType    string
	MinImportance int
	Tags          []string
	DateFrom      *time.Time
	DateTo        *time.Time
	Keywords      []string
	Limit         int
}

// TagCount is one entry of the popular-tags aggregation.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
