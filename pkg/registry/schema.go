package registry

import "time"

// ActivityRegistry lists the job types this service can work on.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one job type. InputSchema is a JSON schema applied to
// the job variables before the handler runs; ErrorCodes are the BPMN error
// codes a process model may catch for it.
type Activity struct {
	ID          string                 `json:"id"`
	DisplayName string                 `json:"displayName"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	Version     string                 `json:"version"`
	TaskType    string                 `json:"taskType"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	ErrorCodes  []string               `json:"errorCodes"`
	Timeout     string                 `json:"timeout"`
	Retries     int                    `json:"retries"`
}

// JobTimeout bounds a single execution of the handler. An empty Timeout
// means DefaultJobTimeout. Validate rejects unparsable values.
func (a *Activity) JobTimeout() time.Duration {
	if a.Timeout == "" {
		return DefaultJobTimeout
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return DefaultJobTimeout
	}
	return d
}

const DefaultJobTimeout = 10 * time.Second
