// Command jannotate prints the annotation list of JSON and YAML documents,
// compares the shapes of two documents and runs annotation fixtures.
//
//	jannotate data.json
//	jannotate diff old.json new.json
//	jannotate verify testdata/
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{} // nil makes cobra fall back to os.Args
	}
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}
