package models

import "time"

// ExecuteRequestData starts a script.
type ExecuteRequestData struct {
	Script    string `json:"script" minLength:"1" example:"profile_generator" doc:"Script name from the catalog"`
	Input     string `json:"input,omitempty" required:"false" example:"alice" doc:"Raw input, converted to script arguments"`
	ProcessID string `json:"processId,omitempty" required:"false" example:"profile_generator_1" doc:"Caller-chosen process identifier; generated when empty"`
}

type ExecuteRequest struct {
	Body ExecuteRequestData
}

type ExecuteData struct {
	Success   bool   `json:"success" example:"true" doc:"Whether the script was accepted"`
	Message   string `json:"message" example:"Script started" doc:"Status message"`
	ProcessID string `json:"processId" example:"profile_generator_1" doc:"Identifier of the started process"`
}

type ExecuteResponse struct {
	Body ExecuteData
}

// StopRequest stops a running process.
type StopRequest struct {
	Body struct {
		ProcessID string `json:"processId" minLength:"1" example:"profile_generator_1" doc:"Process identifier"`
	}
}

// SendInputRequest writes a line to a process's stdin.
type SendInputRequest struct {
	Body struct {
		ProcessID string `json:"processId" minLength:"1" example:"profile_generator_1" doc:"Process identifier"`
		Input     string `json:"input" example:"y" doc:"Text written to stdin, followed by a newline"`
	}
}

type SuccessData struct {
	Success bool   `json:"success" example:"true" doc:"Operation result"`
	Message string `json:"message,omitempty" example:"Process stopped" doc:"Status message"`
}

type SuccessResponse struct {
	Body SuccessData
}

// ProcessData describes a registered process.
type ProcessData struct {
	ProcessID string    `json:"processId" example:"profile_generator_1" doc:"Process identifier"`
	Script    string    `json:"script" example:"profile_generator" doc:"Script name"`
	State     string    `json:"state" example:"running" doc:"Lifecycle state"`
	PID       int       `json:"pid,omitempty" example:"4242" doc:"Operating system process id"`
	StartedAt time.Time `json:"startedAt" doc:"When the process was started"`
}

type ProcessListData struct {
	Processes []ProcessData `json:"processes" doc:"Registered processes, oldest first"`
	Count     int           `json:"count" example:"1" doc:"Number of processes"`
}

type ProcessListResponse struct {
	Body ProcessListData
}
