package events

// Event type constants for kelindar/event.
const (
	TypeBroadcast uint32 = iota + 1
	TypeLogEntry
	TypeProcessState
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// Viewer message names. Each is both the SSE event name and the "type" field of its payload.
const (
	KindStdout       = "stdout"
	KindStderr       = "stderr"
	KindProgress     = "progress"
	KindClose        = "close"
	KindInfo         = "info"
	KindOutputFolder = "output_folder"
)

// Message is a viewer-facing message relayed to every connected session.
type Message interface {
	// Kind returns the message name, e.g. "stdout".
	Kind() string
	// Process returns the originating process identifier, or "" for hub-level messages.
	Process() string
}

// StdoutEvent carries log text a process wrote to stdout.
type StdoutEvent struct {
	EventType string `json:"type" enum:"stdout" doc:"Message type"`
	ProcessID string `json:"processId" example:"profile_generator_1" doc:"Process identifier"`
	Output    string `json:"output" doc:"One or more log lines joined by newlines"`
}

// Kind implements Message.
func (e StdoutEvent) Kind() string { return KindStdout }

// Process implements Message.
func (e StdoutEvent) Process() string { return e.ProcessID }

// StderrEvent carries text a process wrote to stderr, or a launch failure.
type StderrEvent struct {
	EventType string `json:"type" enum:"stderr" doc:"Message type"`
	ProcessID string `json:"processId" example:"profile_generator_1" doc:"Process identifier"`
	Output    string `json:"output" doc:"One or more log lines joined by newlines"`
}

// Kind implements Message.
func (e StderrEvent) Kind() string { return KindStderr }

// Process implements Message.
func (e StderrEvent) Process() string { return e.ProcessID }

// ProgressEvent is a structured progress update extracted from process output.
type ProgressEvent struct {
	EventType string `json:"type" enum:"progress" doc:"Message type"`
	ProcessID string `json:"processId" example:"profile_generator_1" doc:"Process identifier"`
	Profile   string `json:"profile" example:"profile_3" doc:"Unit of work the progress refers to"`
	Current   int    `json:"current" example:"3" doc:"Completed steps"`
	Total     int    `json:"total" example:"10" doc:"Total steps"`
}

// Kind implements Message.
func (e ProgressEvent) Kind() string { return KindProgress }

// Process implements Message.
func (e ProgressEvent) Process() string { return e.ProcessID }

// CloseEvent is the last message for a process; it is sent exactly once.
type CloseEvent struct {
	EventType string `json:"type" enum:"close" doc:"Message type"`
	ProcessID string `json:"processId" example:"profile_generator_1" doc:"Process identifier"`
	Code      int    `json:"code" example:"0" doc:"Exit code, -1 when the process could not be launched or was killed"`
}

// Kind implements Message.
func (e CloseEvent) Kind() string { return KindClose }

// Process implements Message.
func (e CloseEvent) Process() string { return e.ProcessID }

// InfoEvent is an informational notice, such as the connect greeting.
type InfoEvent struct {
	EventType string `json:"type" enum:"info" doc:"Message type"`
	ProcessID string `json:"processId,omitempty" doc:"Process identifier, when the notice concerns one"`
	Message   string `json:"message" example:"Connected to backend terminal" doc:"Notice text"`
}

// Kind implements Message.
func (e InfoEvent) Kind() string { return KindInfo }

// Process implements Message.
func (e InfoEvent) Process() string { return e.ProcessID }

// OutputFolderEvent reports a directory a process said it saved files into.
type OutputFolderEvent struct {
	EventType string `json:"type" enum:"output_folder" doc:"Message type"`
	ProcessID string `json:"processId" example:"video_editor_1" doc:"Process identifier"`
	Path      string `json:"path" example:"/home/user/videos/out" doc:"Directory containing the produced files"`
}

// Kind implements Message.
func (e OutputFolderEvent) Kind() string { return KindOutputFolder }

// Process implements Message.
func (e OutputFolderEvent) Process() string { return e.ProcessID }

// Stdout builds a StdoutEvent.
func Stdout(processID, output string) StdoutEvent {
	return StdoutEvent{EventType: KindStdout, ProcessID: processID, Output: output}
}

// Stderr builds a StderrEvent.
func Stderr(processID, output string) StderrEvent {
	return StderrEvent{EventType: KindStderr, ProcessID: processID, Output: output}
}

// Progress builds a ProgressEvent.
func Progress(processID, profile string, current, total int) ProgressEvent {
	return ProgressEvent{EventType: KindProgress, ProcessID: processID, Profile: profile, Current: current, Total: total}
}

// Close builds a CloseEvent.
func Close(processID string, code int) CloseEvent {
	return CloseEvent{EventType: KindClose, ProcessID: processID, Code: code}
}

// Info builds an InfoEvent. processID may be empty.
func Info(processID, message string) InfoEvent {
	return InfoEvent{EventType: KindInfo, ProcessID: processID, Message: message}
}

// OutputFolder builds an OutputFolderEvent.
func OutputFolder(processID, path string) OutputFolderEvent {
	return OutputFolderEvent{EventType: KindOutputFolder, ProcessID: processID, Path: path}
}

// Broadcast wraps a viewer message on the bus.
// All viewer traffic shares this one event type so each session consumes it
// from a single ordered queue.
type Broadcast struct {
	Msg Message
}

// Type returns the event type identifier for Broadcast.
func (e Broadcast) Type() uint32 { return TypeBroadcast }

// LogEntryEvent represents an application log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2026-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"supervisor" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

// ProcessStateEvent is published on every supervisor state transition.
type ProcessStateEvent struct {
	ProcessID string `json:"processId"`
	Script    string `json:"script"`
	OldState  string `json:"old_state"`
	NewState  string `json:"new_state"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for ProcessStateEvent.
func (e ProcessStateEvent) Type() uint32 { return TypeProcessState }
