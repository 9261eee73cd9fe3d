/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"

	"github.com/toothbrush/confluence-export/confluence"
	"github.com/toothbrush/confluence-export/export"
)

var exportUsage = strings.TrimSpace(`
Export a Confluence page tree to local files.

Point it at a page URL (either the legacy viewpage.action?pageId= form or the modern
/wiki/spaces/KEY/pages/ID/Title form) or a bare page ID.  Each page lands in its own
folder, named after the page, with referenced images downloaded next to it.
`)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export URL_OR_PAGE_ID",
	Short: "Export a Confluence page tree to local files",
	Long:  exportUsage,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, args[0])
	},
}

var (
	Output         string
	Recursive      bool
	OutputFormat   string
	IncludeImages  bool
	AllAttachments bool
	WithVCR        bool
	Workers        int
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&Output, "output", "o", "./output", "output directory")
	exportCmd.Flags().BoolVarP(&Recursive, "recursive", "r", true, "include all descendant pages")
	exportCmd.Flags().StringVarP(&OutputFormat, "format", "f", "md", "output format: md, html or json")
	exportCmd.Flags().BoolVarP(&IncludeImages, "include-images", "i", true, "download and embed referenced images")
	exportCmd.Flags().BoolVar(&AllAttachments, "all-attachments", false, "also download attachments not referenced in the body")
	exportCmd.Flags().BoolVar(&WithVCR, "with-vcr", false, "use go-vcr to cache responses")
	exportCmd.Flags().IntVar(&Workers, "workers", 1, "concurrent attachment downloads per page")
}

func runExport(cmd *cobra.Command, target string) error {
	format := export.Format(OutputFormat)
	switch format {
	case export.FormatMarkdown, export.FormatHTML, export.FormatJSON:
	default:
		return fmt.Errorf("export: unknown format %q, expected md, html or json", OutputFormat)
	}

	instance, pageID, err := confluence.ParsePageURL(target)
	if err != nil {
		return fmt.Errorf("export: couldn't make sense of %q: %w", target, err)
	}
	if instance == "" {
		instance = ConfluenceInstance
	}

	if len(AuthTokenCmd) < 1 {
		return fmt.Errorf("export: please provide --auth-token-cmd")
	}

	tokenCmdOutput, err := exec.Command(AuthTokenCmd[0], AuthTokenCmd[1:]...).Output()
	if err != nil {
		return fmt.Errorf("export: couldn't execute auth-token-cmd '%v': %w", AuthTokenCmd, err)
	}

	token := strings.Split(string(tokenCmdOutput), "\n")[0]

	api, err := confluence.NewAPI(instance, AuthUsername, token)
	if err != nil {
		return fmt.Errorf("export: couldn't instantiate Confluence API: %w", err)
	}

	if WithVCR {
		// set up VCR recordings.
		opts := &recorder.Options{
			CassetteName:       "fixtures/confluence-export",
			Mode:               recorder.ModeReplayWithNewEpisodes,
			SkipRequestLatency: true,
			RealTransport:      http.DefaultTransport,
		}
		r, err := recorder.NewWithOptions(opts)
		if err != nil {
			return fmt.Errorf("export: couldn't set up go-vcr recording: %w", err)
		}

		defer r.Stop() // Make sure recorder is stopped once done with it

		// Add a hook which removes Authorization headers from all requests
		hook := func(i *cassette.Interaction) error {
			delete(i.Request.Headers, "Authorization")
			return nil
		}
		r.AddHook(hook, recorder.AfterCaptureHook)
		r.SetReplayableInteractions(true)

		api.Client = r.GetDefaultClient()
	}

	ctx := cmd.Context()

	// get current user information; cheap sanity check that auth works before we start
	currentUser, err := api.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("export: couldn't query current user: %w", err)
	}
	logger.Info("logged in to id.atlassian.com", "user", currentUser.DisplayName)

	outputRoot, err := homedir.Expand(Output)
	if err != nil {
		return fmt.Errorf("export: couldn't expand homedir: %w", err)
	}
	if err := os.MkdirAll(outputRoot, 0750); err != nil {
		return fmt.Errorf("export: couldn't create output directory %s: %w", outputRoot, err)
	}

	walker := export.NewWalker(api, export.Options{
		OutputRoot:     outputRoot,
		Recursive:      Recursive,
		Format:         format,
		IncludeImages:  IncludeImages,
		AllAttachments: AllAttachments,
		Debug:          Debug,
		Workers:        Workers,
		Progress:       !Debug,
	}, logger)

	_, summary, err := walker.Walk(ctx, pageID)
	if err != nil {
		return fmt.Errorf("export: run aborted: %w", err)
	}

	summary.Log(logger)
	logger.Info("output written", "path", outputRoot)

	return nil
}
