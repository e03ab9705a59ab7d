package config

type Storage struct {
	Database Database `envPrefix:"DATABASE_"`
}

type Database struct {
	// An empty DSN stores the database in the user cache directory
	DSN string `env:"DSN,expand"`
}
