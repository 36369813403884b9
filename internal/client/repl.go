package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/tcpcalc/internal/protocol/operation"
)

const quitCommand = "QUIT"

// RunREPL reads infix expressions line by line, submits each one, and
// prints the accumulator answer. Parse failures are retryable input
// errors; a transport failure ends the loop.
func RunREPL(c *Client, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Enter arithmetic expressions using infix notation. For example: 10 * 3 or 5!.")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == quitCommand {
			return nil
		}
		if line == "" {
			continue
		}

		op, err := operation.Parse(line)
		if err != nil {
			fmt.Fprintln(out, "Could not parse operation. Please, try again.")
			continue
		}

		ans, err := c.Submit(op)
		if err != nil {
			return err
		}
		if ans.Message != "" {
			fmt.Fprintf(out, "Accumulator: %d Error: %s\n", ans.Acc, ans.Message)
		} else {
			fmt.Fprintf(out, "Accumulator: %d\n", ans.Acc)
		}
	}
	return scanner.Err()
}
