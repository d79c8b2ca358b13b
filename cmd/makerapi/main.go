package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-colorable"

	"makerapi/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cmd.NewRoot().ExecuteContext(ctx)
	if err == nil {
		return
	}

	var ex cmd.ExitResult
	if !errors.As(err, &ex) {
		// Flag and argument errors from cobra itself.
		ex = cmd.ExitResult{Code: 2, Message: err.Error(), ToStderr: true}
	}
	if ex.Message != "" {
		out := colorable.NewColorableStdout()
		if ex.ToStderr {
			out = colorable.NewColorableStderr()
		}
		fmt.Fprint(out, ex.Message)
		if !strings.HasSuffix(ex.Message, "\n") {
			fmt.Fprintln(out)
		}
	}
	stop()
	os.Exit(ex.Code)
}
