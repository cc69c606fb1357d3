// Package main provides the entry point for the Lectern CLI application.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/lectern-tts/lectern/internal/engine"
	"github.com/lectern-tts/lectern/internal/library"
	"github.com/lectern-tts/lectern/internal/progress"
	"github.com/lectern-tts/lectern/playback"
	"github.com/lectern-tts/lectern/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	engineName string
	voiceID    string
	speechRate float64
	repeatMode string
	muted      bool
	filter     string
	mouse      bool
	style      string
	width      uint
	noWatch    bool

	playbackCfg playback.Config
	engineCfg   engine.Config

	rootCmd = &cobra.Command{
		Use:   "lectern [FILE|DIR]",
		Short: "Read documents aloud in the terminal",
		Long: paragraph(
			fmt.Sprintf("\nRead markdown and plain text %s, right from the terminal.", keyword("aloud")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// expandPath resolves a leading ~ in user-supplied paths.
func expandPath(path string) string {
	if expanded, err := homedir.Expand(path); err == nil {
		return expanded
	}
	return path
}

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != "auto" && styles.DefaultStyles[style] == nil {
		style = expandPath(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")

	var err error
	playbackCfg, err = playback.LoadConfigFromViper()
	if err != nil {
		return err //nolint:wrapcheck
	}

	engineCfg = engine.Config{
		Backend:        playbackCfg.Engine,
		PiperBinary:    expandPath(viper.GetString("piper.binary")),
		PiperModel:     expandPath(viper.GetString("piper.model")),
		PiperConfig:    expandPath(viper.GetString("piper.config")),
		GTTSLanguage:   viper.GetString("gtts.language"),
		GTTSRPM:        viper.GetInt("gtts.requests_per_minute"),
		CacheDir:       expandPath(viper.GetString("cache.dir")),
		MemCacheBytes:  viper.GetInt64("cache.memory_bytes"),
		DiskCacheBytes: viper.GetInt64("cache.disk_bytes"),
		Mute:           viper.GetBool("mute"),
	}
	if engineCfg.CacheDir == "" {
		engineCfg.CacheDir = defaultCacheDir()
	}

	// validate the glamour style
	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	if !isTerminal && !cmd.Flags().Changed("style") {
		style = "notty"
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") { //nolint:nestif
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

func defaultCacheDir() string {
	scope := gap.NewScope(gap.User, "lectern")
	dir, err := scope.CacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "clips")
}

func execute(_ *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	abs, err := filepath.Abs(expandPath(path))
	if err != nil {
		return fmt.Errorf("unable to get absolute path: %w", err)
	}
	return runTUI(abs)
}

func runTUI(path string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or the validated flag/config value if unset
	if err := validateStyle(cfg.GlamourStyle); err != nil {
		cfg.GlamourStyle = style
	}
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse

	logger := log.Default()

	lib := library.New(logger)
	if err := lib.Open(path); err != nil {
		return err //nolint:wrapcheck
	}
	items := lib.Items()
	if filter != "" {
		if matches := lib.Filter(filter); len(matches) > 0 {
			items = matches
		} else {
			return fmt.Errorf("no documents match %q", filter)
		}
	}
	if len(items) > 0 {
		cfg.InitialItem = items[0].ID
	}

	eng, err := engine.New(engineCfg, logger)
	if err != nil {
		return fmt.Errorf("unable to start speech engine: %w", err)
	}

	store, err := progress.NewStore()
	if err != nil {
		eng.Close()
		return fmt.Errorf("unable to open progress store: %w", err)
	}

	global := playback.NewGlobalState()
	coord, err := playback.NewCoordinator(playback.Options{
		Engine:     eng,
		Sources:    lib,
		Playlist:   lib,
		Store:      store,
		Global:     global,
		NowPlaying: newWindowTitleSink(),
		Config:     playbackCfg,
		Logger:     logger,
	})
	if err != nil {
		eng.Close()
		return err //nolint:wrapcheck
	}
	coord.Start()
	defer coord.Close() //nolint:errcheck

	var docs <-chan string
	if !noWatch {
		watcher, err := lib.Watch()
		if err != nil {
			logger.Warn("file watching unavailable", "err", err)
		} else {
			docs = watcher.Changed()
			defer watcher.Close() //nolint:errcheck
		}
	}

	// Run Bubble Tea program
	p := ui.NewProgram(ui.Options{
		Config:  cfg,
		Player:  coord,
		Library: lib,
		Global:  global,
		Docs:    docs,
		Logger:  logger,
	})
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&engineName, "engine", "e", "mock", "synthesis backend (mock/piper/gtts)")
	rootCmd.Flags().StringVar(&voiceID, "voice", "", "engine-specific voice identifier")
	rootCmd.Flags().Float64VarP(&speechRate, "rate", "r", 1.0, "speech rate multiplier (0.5 to 2.0)")
	rootCmd.Flags().StringVar(&repeatMode, "repeat", "off", "completion behavior (off/one/all)")
	rootCmd.Flags().BoolVar(&muted, "mute", false, "simulate playback without a sound card")
	rootCmd.Flags().StringVarP(&filter, "filter", "f", "", "start with the best fuzzy match for this query")
	rootCmd.Flags().StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to disable)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel")
	_ = rootCmd.Flags().MarkHidden("mouse")
	rootCmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload documents edited on disk")

	// Config bindings
	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("rate", rootCmd.Flags().Lookup("rate"))
	_ = viper.BindPFlag("repeat", rootCmd.Flags().Lookup("repeat"))
	_ = viper.BindPFlag("mute", rootCmd.Flags().Lookup("mute"))
	_ = viper.BindPFlag("style", rootCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)

	playback.SetDefaults()
	viper.SetDefault("gtts.language", "en")
	viper.SetDefault("gtts.requests_per_minute", 30)
	viper.SetDefault("cache.memory_bytes", int64(32<<20))
	viper.SetDefault("cache.disk_bytes", int64(256<<20))

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "lectern")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "lectern")}, dirs...)
	}

	if c := os.Getenv("LECTERN_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("lectern")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("lectern")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "lectern.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
