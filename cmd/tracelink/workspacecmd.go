package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	terrors "tracelink/internal/errors"
	"tracelink/internal/workspace"
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage workspace scan roots",
	Long: `Manage the workspace of scan roots.

A workspace groups several source trees under labeled roots so one scan
covers them all. Occurrences and warnings carry the root label, and
duplicate identifiers across roots are reported.`,
}

var (
	wsLabel      string
	wsPath       string
	wsJSONOutput bool
)

var wsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspace roots",
	RunE:  runWorkspaceList,
}

var wsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a scan root to the workspace",
	Long: `Add a scan root to the workspace.

The root is identified by a label and its filesystem path. Relative
paths are resolved against the workspace directory at scan time, so a
committed workspace file stays portable.`,
	RunE: runWorkspaceAdd,
}

var wsRemoveCmd = &cobra.Command{
	Use:   "remove <label>",
	Short: "Remove a scan root from the workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceRemove,
}

func init() {
	rootCmd.AddCommand(workspaceCmd)

	wsListCmd.Flags().BoolVar(&wsJSONOutput, "json", false, "Output as JSON")
	workspaceCmd.AddCommand(wsListCmd)

	wsAddCmd.Flags().StringVar(&wsLabel, "label", "", "Root label (required)")
	wsAddCmd.Flags().StringVar(&wsPath, "path", "", "Root path (required)")
	wsAddCmd.MarkFlagRequired("label")
	wsAddCmd.MarkFlagRequired("path")
	workspaceCmd.AddCommand(wsAddCmd)

	workspaceCmd.AddCommand(wsRemoveCmd)
}

func runWorkspaceList(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()

	ws, err := workspace.Load(root)
	if err != nil {
		return err
	}

	if wsJSONOutput {
		roots := []workspace.Root{}
		if ws != nil {
			roots = ws.SortedRoots()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(roots)
	}

	if ws == nil || len(ws.Roots) == 0 {
		fmt.Println("No workspace roots configured")
		fmt.Println()
		fmt.Println("Add one with: tracelink workspace add --label main --path .")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tPATH\tADDED")
	for _, r := range ws.SortedRoots() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Label, r.Path, r.AddedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func runWorkspaceAdd(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()

	ws, err := workspace.Load(root)
	if err != nil {
		return err
	}
	if ws == nil {
		ws = workspace.New()
	}

	added, err := ws.AddRoot(wsLabel, wsPath)
	if err != nil {
		return err
	}

	// The path must exist now, resolved the same way the scanner will.
	resolved := added.ResolvePath(root)
	if info, statErr := os.Stat(resolved); statErr != nil || !info.IsDir() {
		return terrors.New(terrors.RootNotFound,
			fmt.Sprintf("root path is not a directory: %s", resolved))
	}

	if err := ws.Save(root); err != nil {
		return err
	}

	fmt.Printf("Added root %s to workspace\n", added.Label)
	fmt.Printf("  UID:  %s\n", added.UID)
	fmt.Printf("  Path: %s\n", resolved)
	return nil
}

func runWorkspaceRemove(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()
	label := args[0]

	ws, err := workspace.Load(root)
	if err != nil {
		return err
	}
	if ws == nil {
		return terrors.New(terrors.WorkspaceInvalid, "no workspace configured")
	}

	if err := ws.RemoveRoot(label); err != nil {
		return err
	}
	if err := ws.Save(root); err != nil {
		return err
	}

	fmt.Printf("Removed root %s from workspace\n", label)
	return nil
}
