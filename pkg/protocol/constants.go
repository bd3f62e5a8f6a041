package protocol

// Directory and path constants used throughout EVA.
const (
	// CursorDir is the host's user-level state directory (e.g., ~/.cursor).
	CursorDir = ".cursor"

	// HooksFile is the host hook registry inside CursorDir.
	HooksFile = "hooks.json"

	// InstallName names the install directory under ~/.cursor/hooks and marks
	// hook commands owned by EVA in hooks.json.
	InstallName = "ra2-eva"

	// AssetsDir is the audio asset root relative to the install directory.
	AssetsDir = "assets/audio"

	// LockFile is the default playback marker name, created in the temp dir.
	LockFile = "ra2-eva-audio.lock"

	// LogTag prefixes every diagnostic line so overlapping hook processes
	// can be found in the host's hook output.
	LogTag = "[EVA]"
)
