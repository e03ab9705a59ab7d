package config

type Connectivity struct {
	// URI of the connectivity signal, ie. https://example.com/?probeInterval=30s
	// or static://offline. Empty means the host is assumed online.
	ProbeURI string `env:"PROBE_URI,expand"`
	Offline  bool   `env:"OFFLINE,expand" envDefault:"false"`
}
