package cmd

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Cartesian-School/gbsd/logging"
	"github.com/Cartesian-School/gbsd/servers/initserver"
)

// shutdown lets both the signal-watching goroutine and the normal
// post-console shutdown path close the stop channel exactly once.
type shutdown struct {
	once sync.Once
	ch   chan struct{}
}

func newShutdown() *shutdown {
	return &shutdown{ch: make(chan struct{})}
}

func (s *shutdown) trigger() {
	s.once.Do(func() { close(s.ch) })
}

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Boot the kernel and bootstrap services, then open a console",
	Args:  cobra.NoArgs,
	RunE:  runBoot,
}

func init() {
	rootCmd.AddCommand(bootCmd)
}

func runBoot(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	srv := initserver.Boot()
	down := newShutdown()

	var wg sync.WaitGroup
	run := func(r func(<-chan struct{})) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r(down.ch)
		}()
	}
	run(srv.Run)
	if ls := srv.LogServer(); ls != nil {
		run(ls.Run)
	}
	if sc := srv.Scheduler(); sc != nil {
		run(sc.Run)
	}
	if vs := srv.VFS(); vs != nil {
		run(vs.Run)
	}
	if ex := srv.Ext4(); ex != nil {
		run(ex.Run)
	}
	if ns := srv.Netstack(); ns != nil {
		run(ns.Run)
	}

	go func() {
		<-ctx.Done()
		down.trigger()
	}()

	fmt.Println("gbsd kernel booted. Type 'help' at the console for commands.")
	if err := runConsole(srv); err != nil {
		logging.Default().Error("console exited with error", "error", err)
	}

	down.trigger()
	wg.Wait()
	return nil
}
