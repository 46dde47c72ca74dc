package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Video describes a stored video.
type Video struct {
	VideoID        string            `json:"videoId"`
	Name           string            `json:"name"`
	Extension      string            `json:"extension"`
	Dimensions     Dimensions        `json:"dimensions"`
	UserID         string            `json:"userId,omitempty"`
	ExtractedAudio bool              `json:"extractedAudio"`
	Resizes        map[string]Resize `json:"resizes"`
	CreatedAt      string            `json:"createdAt,omitempty"`
}

// Dimensions is a frame size.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Resize is the state of one requested output size.
type Resize struct {
	Processing bool `json:"processing"`
}

// Job describes a queued or running resize.
type Job struct {
	Kind      string `json:"kind"`
	VideoID   string `json:"videoId"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Key       string `json:"key"`
	RequestID string `json:"requestId,omitempty"`
}

// DispatcherStatus summarizes the job dispatcher.
type DispatcherStatus struct {
	Running   bool   `json:"running"`
	Current   *Job   `json:"current,omitempty"`
	Pending   []Job  `json:"pending"`
	Recovered int    `json:"recovered"`
	Submitted uint64 `json:"submitted"`
	Succeeded uint64 `json:"succeeded"`
	Failed    uint64 `json:"failed"`
	LastError string `json:"lastError,omitempty"`
}

// WorkerStatus describes one supervised worker slot.
type WorkerStatus struct {
	Slot      int    `json:"slot"`
	PID       int    `json:"pid"`
	Restarts  uint64 `json:"restarts"`
	StartedAt string `json:"startedAt,omitempty"`
	LastExit  string `json:"lastExit,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates primary runtime information.
type DaemonStatus struct {
	Running        bool               `json:"running"`
	PID            int                `json:"pid"`
	StartedAt      string             `json:"startedAt,omitempty"`
	Inline         bool               `json:"inline"`
	StorePath      string             `json:"storePath"`
	LockPath       string             `json:"lockPath"`
	SocketPath     string             `json:"socketPath"`
	Dispatcher     DispatcherStatus   `json:"dispatcher"`
	Workers        []WorkerStatus     `json:"workers"`
	WorkerRestarts uint64             `json:"workerRestarts"`
	Dependencies   []DependencyStatus `json:"dependencies"`
}

// StatusResponse is the body of a JSON status reply.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UploadResponse acknowledges a stored upload.
type UploadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	VideoID string `json:"videoId"`
}

// ErrorResponse is the body of every HTTP error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
