// Package main は、composeports コマンドラインツールのエントリーポイントです。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harakeishi/composeports/cmd"
	"github.com/harakeishi/composeports/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.Execute(ctx)
	stop()
	if err == nil {
		return
	}

	err = errors.NewAppErrorHandler().Handle(ctx, err)
	// 使用中のポートはレポートに表示済み
	if !errors.HasCode(err, errors.ErrPortConflict) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(errors.ExitCode(err))
}
