package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"doxyscan/internal/commands"
	"doxyscan/internal/errors"
)

var (
	commandsGroup  string
	commandsPrefix string
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Inspect the Doxygen command vocabulary",
	Long: `Inspect the command table the recognizer matches against. The built-in
table can be exported, edited and selected with --commands or the
commands.tablePath setting.`,
}

var commandsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known commands",
	Long: `List the commands of the vocabulary.

Examples:
  doxyscan commands list
  doxyscan commands list --group section
  doxyscan commands list --prefix par`,
	Args: cobra.NoArgs,
	RunE: runCommandsList,
}

var commandsDescribeCmd = &cobra.Command{
	Use:   "describe NAME",
	Short: "Show the grammar and help of a command",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommandsDescribe,
}

var commandsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the command table as TOML",
	Long: `Write the active command table to stdout as TOML. The output can be edited
and loaded back with --commands FILE.`,
	Args: cobra.NoArgs,
	RunE: runCommandsExport,
}

func init() {
	commandsListCmd.Flags().StringVar(&commandsGroup, "group", "", "Only list commands of this group")
	commandsListCmd.Flags().StringVar(&commandsPrefix, "prefix", "", "Only list names starting with this prefix")

	commandsCmd.AddCommand(commandsListCmd)
	commandsCmd.AddCommand(commandsDescribeCmd)
	commandsCmd.AddCommand(commandsExportCmd)
	rootCmd.AddCommand(commandsCmd)
}

// CommandListResponse is the response format for commands list
type CommandListResponse struct {
	Commands []commands.Description `json:"commands"`
}

func runCommandsList(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	table := e.recognizer.Table()
	names := table.Names()
	if commandsPrefix != "" {
		names = table.Complete(commandsPrefix)
	}
	resp := &CommandListResponse{Commands: []commands.Description{}}
	for _, name := range names {
		d, ok := table.Describe(name)
		if !ok || (commandsGroup != "" && d.Group != commandsGroup) {
			continue
		}
		resp.Commands = append(resp.Commands, d)
	}
	return e.print(resp)
}

func runCommandsDescribe(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	name := args[0]
	if len(name) > 1 && (name[0] == '\\' || name[0] == '@') {
		name = name[1:]
	}
	d, ok := e.recognizer.Table().Describe(name)
	if !ok {
		return errors.New(errors.CommandNotFound, fmt.Sprintf("unknown command %q", name), nil)
	}
	return e.print(&d)
}

func runCommandsExport(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	return e.recognizer.Table().Encode(e.out)
}

func formatCommandListHuman(resp *CommandListResponse) string {
	var b strings.Builder
	for _, d := range resp.Commands {
		args := strings.Join(d.Arguments, " ")
		fmt.Fprintf(&b, "%-22s %-12s %s\n", `\`+d.Name, d.Group, args)
	}
	fmt.Fprintf(&b, "\n%d commands", len(resp.Commands))
	return b.String()
}
