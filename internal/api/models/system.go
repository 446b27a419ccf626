package models

// Health models
type HealthData struct {
	Status    string `json:"status" example:"ok" doc:"Health status"`
	Message   string `json:"message" example:"API is healthy" doc:"Health message"`
	Processes int    `json:"processes" example:"2" doc:"Registered processes"`
	Viewers   int    `json:"viewers" example:"1" doc:"Connected event stream viewers"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}
