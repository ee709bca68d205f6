package upstream

// ChatRequest is the body forwarded to the agent backend's chat endpoint.
type ChatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"threadId,omitempty"`
	Stream   bool   `json:"stream"`
}

// Thread is one conversation thread tracked by the agent backend.
type Thread struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// ThreadsResponse is the backend's thread listing.
type ThreadsResponse struct {
	Threads []Thread `json:"threads"`
}

// CreateThreadRequest asks the backend for a fresh conversation thread.
type CreateThreadRequest struct {
	Title string `json:"title,omitempty"`
}

// UndoRequest reverts the last action the agent took on a thread.
type UndoRequest struct {
	ThreadID string `json:"threadId"`
}

// UndoResponse reports the outcome of an undo.
type UndoResponse struct {
	Reverted bool   `json:"reverted"`
	Message  string `json:"message,omitempty"`
}
