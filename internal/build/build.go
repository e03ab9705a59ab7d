package build

// Overridden at build time with -ldflags "-X github.com/bornholm/casecache/internal/build.ShortVersion=..."
var (
	ShortVersion = "dev"
	LongVersion  = "dev"
)
