package reqcontext

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("reqcontext")

// ReqContext returns context for cli execution. The first SIGINT/SIGTERM
// cancels it so a batch stops between operations; a second one exits.
// Not safe for concurrent execution.
func ReqContext(cctx *cli.Context) context.Context {
	parent := cctx.Context
	if parent == nil {
		parent = context.Background()
	}

	ctx, done := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 2)
	go func() {
		sig := <-sigChan
		log.Warnw("interrupted, stopping after the current operation", "signal", sig.String())
		done()
		<-sigChan
		os.Exit(130)
	}()
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	return ctx
}
