package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

const prompt = "grocer> "

// Shell reads commands from In until EOF, "exit" or "quit". A failing
// command is reported and the loop continues.
func (a *App) Shell(ctx context.Context) error {
	if a.In == nil {
		return fmt.Errorf("%w: shell needs an input stream", ErrUsage)
	}

	scanner := bufio.NewScanner(a.In)
	fmt.Fprint(a.Out, prompt)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		args, err := SplitArgs(scanner.Text())
		switch {
		case err != nil:
			a.Report(err)
		case len(args) == 0:
		case args[0] == "exit" || args[0] == "quit":
			return nil
		case args[0] == "shell":
			a.Report(fmt.Errorf("%w: already in the shell", ErrUsage))
		default:
			if err := a.Run(ctx, args); err != nil {
				a.Report(err)
			}
		}
		fmt.Fprint(a.Out, prompt)
	}
	fmt.Fprintln(a.Out)
	return scanner.Err()
}

// SplitArgs splits a command line on whitespace. Single or double quotes
// group words, so item names may contain spaces.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inWord  bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated quote", ErrUsage)
	}
	if inWord {
		args = append(args, current.String())
	}
	return args, nil
}
