package models

// DurationData summarizes past run times of a script, in seconds.
type DurationData struct {
	Runs int     `json:"runs" example:"12" doc:"Completed runs observed"`
	P50  float64 `json:"p50" example:"42.5" doc:"Median run time"`
	P90  float64 `json:"p90" example:"80.1" doc:"90th percentile run time"`
	P99  float64 `json:"p99" example:"120.7" doc:"99th percentile run time"`
}

type ScriptData struct {
	Name        string        `json:"name" example:"profile_generator" doc:"Script name"`
	Description string        `json:"description,omitempty" doc:"What the script does"`
	File        string        `json:"file" example:"profile_generator.py" doc:"Script file"`
	Input       string        `json:"input" example:"single" enum:"lines,single,none" doc:"How input becomes arguments"`
	Durations   *DurationData `json:"durations,omitempty" doc:"Run time statistics since startup"`
}

type ScriptListData struct {
	Scripts []ScriptData `json:"scripts" doc:"Runnable scripts sorted by name"`
	Count   int          `json:"count" example:"5" doc:"Number of scripts"`
}

type ScriptListResponse struct {
	Body ScriptListData
}

type ProfileListData struct {
	Success  bool     `json:"success" example:"true" doc:"Operation result"`
	Profiles []string `json:"profiles" example:"[\"alice\",\"bob\"]" doc:"Profile directory names"`
}

type ProfileListResponse struct {
	Body ProfileListData
}

// OpenFolderRequest opens an output folder in the desktop file manager.
type OpenFolderRequest struct {
	Body struct {
		FolderPath string `json:"folderPath" minLength:"1" example:"output/alice" doc:"Absolute path or path relative to the backend directory"`
	}
}

type OpenFolderData struct {
	Success bool   `json:"success" example:"true" doc:"Operation result"`
	Message string `json:"message" example:"Folder opened" doc:"Status message"`
	Path    string `json:"path" example:"/srv/autofx/backend/output/alice" doc:"Resolved folder path"`
}

type OpenFolderResponse struct {
	Body OpenFolderData
}
