package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# synthesis backend: mock, piper, or gtts
engine: "mock"
# engine-specific voice identifier
voice: ""
# speech rate multiplier (0.5 to 2.0)
rate: 1.0
# completion behavior: off, one, or all
repeat: "off"
# play through the simulated audio device instead of the sound card
mute: false

# glamour style name or JSON path (default "auto")
style: "auto"
# word-wrap at width
width: 80
# mouse support
mouse: false

piper:
  # piper binary (looked up on PATH when empty)
  binary: ""
  # path to the onnx voice model
  model: ""
  # path to the model's json config
  config: ""

gtts:
  language: "en"
  # request budget against the remote service
  requests_per_minute: 30

cache:
  # synthesized clip cache location (defaults to the user cache dir)
  dir: ""
  memory_bytes: 33554432
  disk_bytes: 268435456

playback:
  # transport skip step
  skip_interval: "15s"
  # estimated speech density at rate 1.0, characters per second
  chars_per_second: 14
  # progress persistence cadence during playback
  save_interval: "5s"
  # reset to idle when the engine never starts speaking within this window
  watchdog_timeout: "5s"
  # utterances shorter than this complete without replay bookkeeping
  min_tail_chars: 50
  # position past which a restart counts as a tail (0.9 = last 10%)
  tail_start_fraction: 0.9
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the lectern config file",
	Long:    paragraph(fmt.Sprintf("\n%s the lectern config file. We'll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("lectern config\nlectern config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Lectern", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
