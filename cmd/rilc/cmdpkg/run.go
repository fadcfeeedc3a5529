package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ril-lang/rilc/internal/bytecode"
	"github.com/ril-lang/rilc/internal/unit"
)

var (
	dumpBytecode bool
	runImports   []string
)

var runCmd = &cobra.Command{
	Use:   "run <path>",
	Short: "Run a Ril source file",
	Long: `Parse, typecheck, compile and execute a Ril source file as the root
unit, printing its top_level result.

Examples:
  rilc run program.ril
  rilc run --import lib.ril program.ril
  rilc run --dump-bytecode program.ril`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&dumpBytecode, "dump-bytecode", false, "print the disassembly of every function after the unit runs, before its result")
	runCmd.Flags().StringArrayVar(&runImports, "import", nil, "a sibling Ril source file to load as a visible import before running path (repeatable)")
}

func runScript(_ *cobra.Command, args []string) error {
	path := args[0]
	m := unit.NewManager(os.Stdout, newLoadLogger())

	cfg, err := loadRilrc()
	if err != nil {
		return fmt.Errorf("reading .rilrc: %w", err)
	}

	var imports []unit.ID
	for _, imp := range runImports {
		id, err := loadUnitFile(m, cfg.resolveImportPath(imp), nil)
		if err != nil {
			return err
		}
		imports = append(imports, id)
		if verbose {
			fmt.Fprintf(os.Stderr, "loaded import %s as unit %d\n", imp, id)
		}
	}

	root, err := loadUnitFileVerbose(m, path, imports)
	if err != nil {
		return err
	}

	if dumpBytecode {
		fmt.Fprint(os.Stderr, bytecode.Disassemble(root.Program))
	}

	fmt.Println(root.Result.String())
	return nil
}

func loadUnitFile(m *unit.Manager, path string, imports []unit.ID) (unit.ID, error) {
	u, err := loadUnitFileVerbose(m, path, imports)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

func loadUnitFileVerbose(m *unit.Manager, path string, imports []unit.ID) (*unit.Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	u, err := m.Load(path, string(src), imports)
	if err != nil {
		return nil, err
	}
	return u, nil
}
