package signals

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	signalCtx context.Context
	cancel    context.CancelFunc
	once      sync.Once
)

// Context returns a Context that is cancelled on SIGTERM or SIGINT.
// A second signal terminates the program with exit code 1, since a
// running solve cannot be interrupted once handed to the backend.
func Context() context.Context {
	once.Do(func() {
		c := make(chan os.Signal, 2)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		signalCtx, cancel = context.WithCancel(context.Background())
		go func() {
			<-c
			cancel()

			select {
			case <-signalCtx.Done():
			case <-c:
				os.Exit(1)
			}
		}()
	})

	return signalCtx
}
