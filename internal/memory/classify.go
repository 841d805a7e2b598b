package memory

// RiskLevel says how safe it is to close a process.
type RiskLevel string

const (
	RiskSafe   RiskLevel = "safe"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Classification is the catalog entry for a known background application.
type Classification struct {
	DisplayName string    `json:"displayName"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Risk        RiskLevel `json:"risk"`
}

const (
	categoryMicrosoft    = "Microsoft Bloatware"
	categoryTelemetry    = "Telemetry"
	categoryUpdater      = "Third-party Updater"
	categoryOEM          = "Manufacturer Bloatware"
	categoryCommunicator = "Communication"
	categoryLauncher     = "Game Launcher"
	categorySync         = "Cloud Sync"
)

// knownProcesses maps lower-case process names (no .exe) to their
// classification. Anything not listed is never offered for termination.
var knownProcesses = map[string]Classification{
	// Microsoft extras that respawn on demand.
	"onedrive":              {"OneDrive", categoryMicrosoft, "OneDrive sync client", RiskLow},
	"cortana":               {"Cortana", categoryMicrosoft, "Cortana assistant", RiskSafe},
	"searchui":              {"Cortana Search UI", categoryMicrosoft, "Legacy Cortana search host", RiskSafe},
	"yourphone":             {"Phone Link", categoryMicrosoft, "Phone Link background host", RiskSafe},
	"phoneexperiencehost":   {"Phone Link", categoryMicrosoft, "Phone Link experience host", RiskSafe},
	"gamebar":               {"Xbox Game Bar", categoryMicrosoft, "Xbox Game Bar overlay", RiskSafe},
	"gamebarpresencewriter": {"Game Bar Presence Writer", categoryMicrosoft, "Reports game activity to Xbox", RiskSafe},
	"xboxappservices":       {"Xbox App Services", categoryMicrosoft, "Xbox app background services", RiskSafe},
	"skypeapp":              {"Skype", categoryMicrosoft, "Skype UWP app", RiskSafe},
	"skypebackgroundhost":   {"Skype Background Host", categoryMicrosoft, "Skype background host", RiskSafe},
	"helppane":              {"Windows Help", categoryMicrosoft, "Help pane host", RiskSafe},
	"widgets":               {"Widgets", categoryMicrosoft, "Windows widgets board", RiskSafe},
	"widgetservice":         {"Widget Service", categoryMicrosoft, "Windows widgets service host", RiskSafe},
	"microsoftedgeupdate":   {"Edge Update", categoryUpdater, "Microsoft Edge updater", RiskSafe},
	"msteams":               {"Microsoft Teams", categoryCommunicator, "Teams client", RiskMedium},
	"teams":                 {"Microsoft Teams (classic)", categoryCommunicator, "Classic Teams client", RiskMedium},
	"officeclicktorun":      {"Office Click-to-Run", categoryMicrosoft, "Office streaming and update service host", RiskHigh},

	// Telemetry.
	"compattelrunner":      {"Compatibility Telemetry", categoryTelemetry, "Microsoft compatibility appraiser", RiskLow},
	"devicecensus":         {"Device Census", categoryTelemetry, "Device census telemetry", RiskSafe},
	"nvtelemetrycontainer": {"NVIDIA Telemetry", categoryTelemetry, "NVIDIA telemetry container", RiskSafe},

	// Third-party updaters and helpers.
	"googleupdate":         {"Google Update", categoryUpdater, "Google software updater", RiskSafe},
	"googlecrashhandler":   {"Google Crash Handler", categoryUpdater, "Chrome crash reporter", RiskSafe},
	"googlecrashhandler64": {"Google Crash Handler", categoryUpdater, "Chrome crash reporter", RiskSafe},
	"adobearm":             {"Adobe Updater", categoryUpdater, "Adobe Acrobat update manager", RiskSafe},
	"adobeupdateservice":   {"Adobe Update Service", categoryUpdater, "Adobe update service", RiskSafe},
	"adobeipcbroker":       {"Adobe IPC Broker", categoryUpdater, "Creative Cloud IPC broker", RiskLow},
	"ccxprocess":           {"Creative Cloud Experience", categoryUpdater, "Creative Cloud background process", RiskLow},
	"jusched":              {"Java Update Scheduler", categoryUpdater, "Java update checker", RiskSafe},
	"ituneshelper":         {"iTunes Helper", categoryUpdater, "iTunes device helper", RiskSafe},
	"softwareupdate":       {"Apple Software Update", categoryUpdater, "Apple updater", RiskSafe},
	"ccleaner":             {"CCleaner Monitor", categoryUpdater, "CCleaner smart cleaning monitor", RiskSafe},

	// OEM utilities.
	"hpwpsvc":                     {"HP Wolf Security", categoryOEM, "HP analytics service host", RiskLow},
	"hptouchpointanalyticsclient": {"HP Analytics", categoryOEM, "HP TouchPoint analytics", RiskSafe},
	"dellsupportassist":           {"Dell SupportAssist", categoryOEM, "Dell support agent", RiskLow},
	"lenovovantageservice":        {"Lenovo Vantage", categoryOEM, "Lenovo Vantage service host", RiskLow},
	"asusoptimization":            {"ASUS Optimization", categoryOEM, "ASUS system optimization agent", RiskLow},
	"acerquickaccess":             {"Acer Quick Access", categoryOEM, "Acer quick access tray", RiskSafe},
	"realtekhdaudiomanager":       {"Realtek Audio Manager", categoryOEM, "Realtek HD audio tray", RiskMedium},
	"nvidia share":                {"NVIDIA Share", categoryOEM, "GeForce Experience overlay", RiskLow},
	"nvbackend":                   {"NVIDIA Backend", categoryOEM, "GeForce Experience backend", RiskLow},
	"razer synapse":               {"Razer Synapse", categoryOEM, "Razer peripheral software", RiskMedium},
	"icue":                        {"Corsair iCUE", categoryOEM, "Corsair peripheral software", RiskMedium},
	"lghub":                       {"Logitech G HUB", categoryOEM, "Logitech peripheral software", RiskMedium},

	// Launchers and chat apps people often leave running.
	"steam":             {"Steam", categoryLauncher, "Steam client", RiskMedium},
	"steamwebhelper":    {"Steam Web Helper", categoryLauncher, "Steam embedded browser", RiskMedium},
	"epicgameslauncher": {"Epic Games Launcher", categoryLauncher, "Epic Games launcher", RiskMedium},
	"eadesktop":         {"EA App", categoryLauncher, "EA desktop client", RiskMedium},
	"battle.net":        {"Battle.net", categoryLauncher, "Blizzard launcher", RiskMedium},
	"discord":           {"Discord", categoryCommunicator, "Discord client", RiskMedium},
	"slack":             {"Slack", categoryCommunicator, "Slack client", RiskHigh},
	"zoom":              {"Zoom", categoryCommunicator, "Zoom client", RiskHigh},
	"spotify":           {"Spotify", categoryCommunicator, "Spotify player", RiskMedium},

	// Sync clients; closing one can interrupt an upload.
	"dropbox":       {"Dropbox", categorySync, "Dropbox sync client", RiskHigh},
	"googledrivefs": {"Google Drive", categorySync, "Google Drive for desktop", RiskHigh},
}

// Classify looks a process name up in the catalog. Matching ignores case
// and an optional .exe suffix.
func Classify(name string) (Classification, bool) {
	c, ok := knownProcesses[baseName(name)]
	return c, ok
}
