/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/charmbracelet/log"
	"github.com/fatih/structs"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	// Store the result of binding cobra flags
	Config string
	Debug  bool

	// ConfigActual is the fully-resolved path we ended up reading.
	ConfigActual string

	// Command to run to retrieve API Personal Access Token
	AuthTokenCmd []string

	AuthUsername       string
	ConfluenceInstance string

	ParsedConfig YamlConfig

	logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "confluence-export",
	})
)

// Build the cobra command that handles our command line tool.
var rootCmd = &cobra.Command{
	Use:   "confluence-export",
	Short: "Export a Confluence page tree to portable local files",
	Long: `
Ever wanted a Confluence page hierarchy as plain Markdown -- say, to feed your local
tooling or an LLM's context window?  This tool walks a page tree and exports every page,
with images and diagram previews downloaded alongside, so the result stands on its own.
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if Debug {
			logger.SetLevel(log.DebugLevel)
		}

		// You can bind cobra and config in a few locations, but PersistentPreRunE on the
		// root command works well
		if err := initializeConfig(cmd); err != nil {
			return fmt.Errorf("confluence-export: failed to initialise config: %w", err)
		}
		return nil
	},
}

func init() {
	// Define cobra flags, the default value has the lowest (least significant) precedence
	rootCmd.PersistentFlags().StringVar(&Config, "config", "", "config file location (default: ~/.config/confluence-export.yaml, respects CONFLUENCE_EXPORT_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "display debug output")
	rootCmd.PersistentFlags().StringSliceVar(&AuthTokenCmd, "auth-token-cmd", []string{}, "shell command to retrieve Atlassian auth token")
	rootCmd.PersistentFlags().StringVar(&AuthUsername, "auth-username", "", "your Atlassian username")
	rootCmd.PersistentFlags().StringVar(&ConfluenceInstance, "confluence-instance", "", "your Atlassian ORG name, e.g. ORG in ORG.atlassian.net")
}

func initializeConfig(cmd *cobra.Command) error {
	if Config == "" {
		// Did the user provide an ENV?
		envConfig := os.Getenv("CONFLUENCE_EXPORT_CONFIG")
		if envConfig != "" {
			Config = envConfig
		} else {
			// As fallback, search for config in home XDG-ish directory
			Config = "~/.config/confluence-export.yaml"
		}
	}
	config, err := homedir.Expand(Config)
	if err != nil {
		return fmt.Errorf("confluence-export: unable to expand homedir: %w", err)
	}
	ConfigActual = config

	if _, err := os.Stat(ConfigActual); errors.Is(err, os.ErrNotExist) {
		// No config file is fine; flags and defaults will have to do.
		debugLog("no config file at %s, continuing with flags only\n", ConfigActual)
		return nil
	}

	yamlFile, err := os.ReadFile(ConfigActual)
	if err != nil {
		return fmt.Errorf("confluence-export: error reading config file: %w", err)
	}

	// I'd like to bark if a user sets a key we don't recognise:
	if err := yaml.UnmarshalStrict(yamlFile, &ParsedConfig); err != nil {
		return fmt.Errorf("confluence-export: issue parsing config file: %w", err)
	}

	if err := bindFlags(cmd, ParsedConfig); err != nil {
		return fmt.Errorf("confluence-export: failed to bind flags: %w", err)
	}

	return nil
}

type YamlConfig struct {
	Recursive      *bool `yaml:"recursive"`
	IncludeImages  *bool `yaml:"include-images"`
	AllAttachments *bool `yaml:"all-attachments"`
	WithVCR        *bool `yaml:"with-vcr"`

	Output             string   `yaml:"output"`
	Format             string   `yaml:"format"`
	ConfluenceInstance string   `yaml:"confluence-instance"`
	AuthUsername       string   `yaml:"auth-username"`
	AuthTokenCmd       []string `yaml:"auth-token-cmd"`
}

// Bind each cobra flag to its associated config file key
func bindFlags(cmd *cobra.Command, v YamlConfig) error {
	for _, field := range structs.Fields(v) {
		key := field.Tag("yaml")
		if key == "" {
			return fmt.Errorf("confluence-export: could not retrieve struct tag 'yaml'")
		}
		if flag := cmd.Flag(key); flag == nil {
			// hmm... the flag is unknown.  but that can legitimately happen if you're
			// running e.g. `config show` which has no `recursive` flag but your YAML file
			// does define that key...
			continue
		}
		if !cmd.Flags().Changed(key) {
			switch field.Kind() {
			case reflect.Ptr:
				// err, this is crappy, but i know YamlConfig only uses pointers for bools.....
				b, ok := field.Value().(*bool)
				if !ok {
					return fmt.Errorf("confluence-export: found unrecognised field: %+v", field)
				}
				if b != nil {
					cmd.Flags().Set(key, fmt.Sprintf("%v", *b))
				}

			case reflect.String:
				s, ok := field.Value().(string)
				if !ok {
					return fmt.Errorf("confluence-export: found unrecognised field: %+v", field)
				}
				if s != "" {
					cmd.Flags().Set(key, s)
				}

			case reflect.Slice:
				ss, ok := field.Value().([]string)
				if !ok {
					return fmt.Errorf("confluence-export: found unrecognised field: %+v", field)
				}
				for _, s := range ss {
					// yes, repeatedly calling Set() appends to the slice...
					cmd.Flags().Set(key, s)
				}

			default:
				return fmt.Errorf("confluence-export: found unrecognised field: %+v", field)
			}
		}
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("confluence-export: execution error: %w", err)
	}

	return nil
}
