package services

import "strings"

const categorySystem = "System"

// criticalServices must never be stopped or disabled. Keys are lower-case.
var criticalServices = map[string]bool{
	// security
	"windefend":             true,
	"securityhealthservice": true,
	"wdnissvc":              true,
	"mpdefendercoreservice": true,
	"wuauserv":              true,
	"usosvc":                true,
	"mousocoreworker":       true,
	"trustedinstaller":      true,
	// audio and display
	"audiosrv":             true,
	"audioendpointbuilder": true,
	"uxsms":                true,
	"dispbrokerdesktopsvc": true,
	// firewall and network
	"mpssvc":   true,
	"dhcp":     true,
	"dnscache": true,
	"netman":   true,
	"nlasvc":   true,
	"netlogon": true,
	// core
	"plugplay":      true,
	"power":         true,
	"eventlog":      true,
	"rpcss":         true,
	"themes":        true,
	"dcomlaunch":    true,
	"winmgmt":       true,
	"cryptsvc":      true,
	"keyiso":        true,
	"samss":         true,
	"lsa":           true,
	"bits":          true,
	"wsearch":       true,
	"searchindexer": true,
	"w32time":       true,
	"wersvc":        true,
	"wecsvc":        true,
	"vss":           true,
	"vds":           true,
	"spooler":       true,
	"dps":           true,
	"profsvc":       true,
	"schedule":      true,
	"eventsystem":   true,
}

type catalogEntry struct {
	category    string
	description string
}

// safeToStop lists optional services with a short explanation. Keys are
// lower-case. A service that is also critical stays protected.
var safeToStop = map[string]catalogEntry{
	"onesyncsvc":               {"Microsoft Bloatware", "Syncs mail, contacts and calendar"},
	"onedrive updater service": {"Microsoft Bloatware", "OneDrive update service"},
	"wmpnetworksvc":            {"Microsoft Bloatware", "Windows Media Player network sharing"},
	"xblauthmanager":           {"Microsoft Bloatware", "Xbox Live auth manager"},
	"xblgamesave":              {"Microsoft Bloatware", "Xbox Live game save"},
	"xboxgipsvc":               {"Microsoft Bloatware", "Xbox accessory management"},
	"xboxnetapisvc":            {"Microsoft Bloatware", "Xbox Live networking service"},
	"wpcmonsvc":                {"Microsoft Bloatware", "Parental controls"},
	"phonesvc":                 {"Microsoft Bloatware", "Phone service"},
	"pimindexmaintenancesvc":   {"Microsoft Bloatware", "Contact data indexing"},
	"unistoresvc":              {"Microsoft Bloatware", "User data storage"},
	"userdatasvc":              {"Microsoft Bloatware", "User data access"},
	"wpnuserservice":           {"Microsoft Bloatware", "Push notifications user service"},
	"diagtrack":                {"Telemetry", "Connected user experiences and telemetry"},
	"dmwappushservice":         {"Telemetry", "WAP push message routing"},
	"remoteregistry":           {"Optional", "Remote registry, rarely needed"},
	"ssdpsrv":                  {"Optional", "SSDP discovery, can be stopped without a home network"},
	"upnphost":                 {"Optional", "UPnP device host, can be stopped without a home network"},
	"wbiosrvc":                 {"Optional", "Biometric service, only needed with a fingerprint or face reader"},
	"tabletinputservice":       {"Optional", "Touch keyboard and handwriting panel"},
	"trkwks":                   {"Optional", "Distributed link tracking client"},
	"spooler":                  {"Printing", "Print spooler, printers stop working without it"},
	"fax":                      {"Fax", "Fax service"},
	"bthserv":                  {"Bluetooth", "Bluetooth support, only needed with Bluetooth devices"},
	"wsearch":                  {"Search", "Windows Search indexer, stopping it frees CPU and disk"},
}

// IsCritical reports whether name is a service Windows depends on.
func IsCritical(name string) bool {
	return criticalServices[strings.ToLower(strings.TrimSpace(name))]
}

// IsSafeToStop reports whether s may be stopped without harming Windows.
func IsSafeToStop(s Service) bool {
	return s.SafeToStop && !IsCritical(s.Name)
}

// Catalog returns the category and description for a known optional service.
func Catalog(name string) (category, description string, ok bool) {
	e, ok := safeToStop[strings.ToLower(strings.TrimSpace(name))]
	return e.category, e.description, ok
}
