package indicator

// Messages is the catalog of user-facing notice and tray text.
type Messages struct {
	AppName          string
	MuteAction       string
	UnmuteAction     string
	ListDevices      string
	OpenConfig       string
	ReloadConfig     string
	Exit             string
	TooltipMuted     string
	TooltipUnmuted   string
	TooltipNoDevice  string
	BindFailed       string
	DeviceListHint   string
	HotkeyFailed     string
	HotkeyFallback   string
	ReloadDone       string
	ReloadProblems   string
	ConfigDefaulted  string
	AlreadyRunning   string
	DeviceListFailed string
}

// MessagesFromEnv returns the catalog for the user's locale. Only the
// English catalog ships, so $LANG does not change the result yet.
func MessagesFromEnv() Messages {
	return Messages{
		AppName:          "Microphone Toggle",
		MuteAction:       "Mute Microphone",
		UnmuteAction:     "Unmute Microphone",
		ListDevices:      "List Audio Devices",
		OpenConfig:       "Open Config File",
		ReloadConfig:     "Reload Config",
		Exit:             "Exit",
		TooltipMuted:     "🔇 MUTED - %s",
		TooltipUnmuted:   "🎤 UNMUTED - %s",
		TooltipNoDevice:  "⚠ NO DEVICE",
		BindFailed:       "Could not open the configured microphone",
		DeviceListHint:   "Available devices were written to %s",
		HotkeyFailed:     "Global hotkey unavailable; use the tray icon to toggle",
		HotkeyFallback:   "Failed to read keyboards; falling back to the standard hotkey",
		ReloadDone:       "Configuration reloaded",
		ReloadProblems:   "Configuration reloaded with problems",
		ConfigDefaulted:  "Config file could not be read; using defaults",
		AlreadyRunning:   "Microphone Toggle is already running",
		DeviceListFailed: "Could not write the device list",
	}
}
