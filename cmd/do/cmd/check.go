package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

type checker struct {
	name  string
	bin   string
	args  []string
	runFn func() error // custom run function (if set, bin/args ignored)
}

func CheckCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run gofmt, go vet and go test in parallel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(short)
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "skip tests that need external services")
	return cmd
}

func runCheck(short bool) error {
	testArgs := []string{"test", "-race", "./..."}
	if short {
		testArgs = append(testArgs, "-short")
	}

	checkers := []checker{
		{name: "gofmt", runFn: checkFormat},
		{name: "vet", bin: "go", args: []string{"vet", "./..."}},
		{name: "test", bin: "go", args: testArgs},
	}

	start := time.Now()
	var wg sync.WaitGroup
	errCh := make(chan error, len(checkers))

	for _, c := range checkers {
		wg.Add(1)
		go func(c checker) {
			defer wg.Done()

			checkStart := time.Now()
			var err error
			if c.runFn != nil {
				err = c.runFn()
			} else {
				err = run(c.bin, c.args...)
			}

			if err != nil {
				errCh <- fmt.Errorf("%s: %w", c.name, err)
				return
			}

			fmt.Printf("[%s] ok (%s)\n", c.name, time.Since(checkStart).Round(time.Millisecond))
		}(c)
	}

	wg.Wait()
	close(errCh)

	var failed bool
	for err := range errCh {
		fmt.Println("error:", err)
		failed = true
	}
	if failed {
		return fmt.Errorf("checks failed")
	}

	fmt.Printf("done (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func checkFormat() error {
	var out bytes.Buffer
	cmd := exec.Command("gofmt", "-l", "cmd", "internal")
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return err
	}

	files := strings.Fields(out.String())
	if len(files) > 0 {
		return fmt.Errorf("unformatted files: %s", strings.Join(files, ", "))
	}
	return nil
}
