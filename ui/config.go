package ui

// Config contains TUI-specific configuration.
type Config struct {
	HomeDir      string `env:"HOME"`
	GlamourStyle string `env:"GLAMOUR_STYLE" envDefault:"auto"`

	GlamourMaxWidth uint
	EnableMouse     bool

	// InitialItem is played on startup when set.
	InitialItem string

	// FollowPlayback scrolls the document view to track the spoken
	// position.
	FollowPlayback bool `env:"LECTERN_FOLLOW" envDefault:"true"`

	GlamourEnabled bool `env:"LECTERN_ENABLE_GLAMOUR" envDefault:"true"`
}
