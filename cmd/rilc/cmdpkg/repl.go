package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/ril-lang/rilc/internal/unit"
)

var (
	replGreen = color.New(color.FgGreen).SprintFunc()
	replRed = color.New(color.FgRed).SprintFunc()
	replDim = color.New(color.Faint).SprintFunc()
)

var replCmd = &cobra.Command{
	Use: "repl",
	Short: "Start an interactive Ril session",
	Long: `Each accepted line is compiled as a new unit importing every
previously accepted unit, so later lines see earlier lines' globals and
functions.`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(*cobra.Command, []string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Fprintln(os.Stdout, replDim("rilc repl -- ctrl-d to exit"))

	m := unit.NewManager(os.Stdout, newLoadLogger())
	var imports []unit.ID
	n := 0

	for {
		input, err := line.Prompt("ril> ")
		if err == io.EOF {
			fmt.Fprintln(os.Stdout, replGreen("goodbye"))
			return nil
		}
		if err != nil {
			return err
		}
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		n++
		name := fmt.Sprintf("<repl:%d>", n)
		u, err := m.Load(name, input, imports)
		if err != nil {
			fmt.Fprintln(os.Stderr, replRed(err.Error()))
			continue
		}
		imports = append(imports, u.ID)
		fmt.Fprintln(os.Stdout, u.Result.String())
	}
}
