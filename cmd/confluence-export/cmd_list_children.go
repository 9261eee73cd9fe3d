/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toothbrush/confluence-export/confluence"
)

var listChildrenUsage = strings.TrimSpace(`
Print the direct children of a page, in the order the API reports them.  Handy for
checking what an export run is about to pick up.
`)

var listChildrenCmd = &cobra.Command{
	Use:   "children URL_OR_PAGE_ID",
	Short: "Print a page's direct children",
	Long:  listChildrenUsage,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instance, pageID, err := confluence.ParsePageURL(args[0])
		if err != nil {
			return fmt.Errorf("list: couldn't make sense of %q: %w", args[0], err)
		}
		if instance == "" {
			instance = ConfluenceInstance
		}

		if len(AuthTokenCmd) < 1 {
			return fmt.Errorf("list: please provide --auth-token-cmd")
		}

		tokenCmdOutput, err := exec.Command(AuthTokenCmd[0], AuthTokenCmd[1:]...).Output()
		if err != nil {
			return fmt.Errorf("list: couldn't execute auth-token-cmd '%v': %w", AuthTokenCmd, err)
		}

		token := strings.Split(string(tokenCmdOutput), "\n")[0]
		api, err := confluence.NewAPI(instance, AuthUsername, token)
		if err != nil {
			return fmt.Errorf("list: couldn't instantiate Confluence API: %w", err)
		}

		children, err := api.ListChildren(cmd.Context(), pageID)
		if err != nil {
			return fmt.Errorf("list: couldn't list children of %s: %w", pageID, err)
		}

		fmt.Printf("children of %s:\n", pageID)
		for _, child := range children {
			fmt.Printf("  - %s: %s\n", child.ID, child.Title)
		}

		return nil
	},
}

func init() {
	listCmd.AddCommand(listChildrenCmd)
}
