package progress

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Marker delimits a structured progress payload inside an output line.
const Marker = "<<PROGRESS>>"

var markerPattern = regexp.MustCompile(regexp.QuoteMeta(Marker) + `(.+?)` + regexp.QuoteMeta(Marker))

// Update is a structured progress payload.
type Update struct {
	Profile string `json:"profile"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// Result is the classification of one line.
type Result struct {
	// Log is the text to show, empty when the line produces no log output.
	Log string
	// Progress is set when the line carried a well-formed marker.
	Progress *Update
	// Folder is the parent directory of a path the line reported saving to.
	Folder string
}

// ParseLine classifies a single logical line.
func ParseLine(raw string) Result {
	line := strings.TrimRightFunc(raw, unicode.IsSpace)

	res := Result{Log: line}
	if m := markerPattern.FindStringSubmatch(line); m != nil {
		if update, ok := decodeUpdate(m[1]); ok {
			res.Progress = &update
			res.Log = strings.TrimSpace(strings.Replace(line, m[0], "", 1))
		}
	}

	if folder, ok := DetectOutputFolder(line); ok {
		res.Folder = folder
	}
	return res
}

// decodeUpdate accepts a JSON object with a non-empty profile. Counts may be
// floats and are truncated; counts outside the int32 range reject the payload.
func decodeUpdate(payload string) (Update, bool) {
	var raw struct {
		Profile string  `json:"profile"`
		Current float64 `json:"current"`
		Total   float64 `json:"total"`
	}
	if !strings.HasPrefix(strings.TrimSpace(payload), "{") {
		return Update{}, false
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return Update{}, false
	}
	if raw.Profile == "" || !inCountRange(raw.Current) || !inCountRange(raw.Total) {
		return Update{}, false
	}
	return Update{Profile: raw.Profile, Current: int(raw.Current), Total: int(raw.Total)}, true
}

func inCountRange(v float64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

// folderPhrases are the "saved to" announcements pipeline scripts print.
var folderPhrases = []string{"salvas em:", "salvos em", "compactados em:", "saved to:"}

// DetectOutputFolder finds a "saved to <path>" announcement and returns the
// directory part of the path. Paths with no directory component are ignored.
func DetectOutputFolder(line string) (string, bool) {
	for _, phrase := range folderPhrases {
		i := strings.Index(line, phrase)
		if i < 0 {
			continue
		}
		rest := strings.TrimLeft(line[i+len(phrase):], ":")
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		path := fields[0]
		sep := strings.LastIndexAny(path, `/\`)
		if sep <= 0 {
			continue
		}
		return path[:sep], true
	}
	return "", false
}
