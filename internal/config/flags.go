package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagSeed    = flag.Int64("seed", 0, "Terrain seed (overrides config)")
	flagWidth   = flag.Int("width", 0, "Terrain width in cells")
	flagHeight  = flag.Int("height", 0, "Terrain height in cells")
	flagNoise   = flag.String("noise", "", "Noise backend: perlin or simplex")
	flagMethod  = flag.String("method", "", "Base layer method: layered or diamond")
	flagAnchor  = flag.String("anchor", "", "Light vector anchor: fixed or light")
	flagPort    = flag.Int("port", 0, "HTTP API port")
	flagNoAPI   = flag.Bool("no-api", false, "Generate, export and exit without serving")
	flagPNG     = flag.String("png", "", "Write a shaded preview PNG to this path")
	flagDB      = flag.String("db", "", "Scene store path")
	flagRestore = flag.String("restore", "", "Scene id to restore from the store, or \"last\"")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path given with -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSeed != 0 {
		cfg.World.Seed = *flagSeed
	}
	if *flagWidth > 0 {
		cfg.World.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.World.Height = *flagHeight
	}
	if *flagNoise != "" {
		cfg.World.Noise = *flagNoise
	}
	if *flagMethod != "" {
		cfg.World.Method = *flagMethod
	}
	if *flagAnchor != "" {
		cfg.Lighting.Anchor = *flagAnchor
	}
	if *flagPort > 0 {
		cfg.Server.Port = *flagPort
	}
	if *flagNoAPI {
		cfg.Server.Enabled = false
	}
	if *flagPNG != "" {
		cfg.Output.PreviewPNG = *flagPNG
	}
	if *flagDB != "" {
		cfg.Store.Path = *flagDB
	}
	if *flagRestore != "" {
		cfg.Store.Restore = *flagRestore
	}
}
