// Package scripts maps script names to the commands that run them.
//
// A catalog comes from scripts.toml:
//
//	interpreter = "venv/bin/python3"
//	backend_dir = "backend"
//
//	[env]
//	GOOGLE_APPLICATION_CREDENTIALS = "credentials.json"
//
//	[scripts.profile_generator]
//	description = "Create a channel profile"
//	input = "single"
//
//	[scripts.audio_generator]
//	file = "audio_generator.py"
//
// Without a catalog file every *.py in the backend directory is runnable.
// Scripts run as "<interpreter> -u <backend>/<file> args...", where args come
// from the start request's input: one per non-empty line by default, the whole
// input for "single" scripts, none for "none" scripts.
package scripts
