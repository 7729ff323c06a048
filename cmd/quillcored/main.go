// Command quillcored hosts a CoreContext as a long-running process: load
// configuration, open storage, and block until a termination signal
// arrives. The reindex sweep is not started here (see below). Grounded in
// core/lynx/lynx.go's start/wait/stop lifecycle, reworked around
// CoreContext instead of a job/trigger/worker graph.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/inkforge/quillcore/internal/corecontext"
)

func main() {
	configPath := flag.String("config", "quillcore.json", "path to the JSON configuration file")
	dbPath := flag.String("db", "quillcore.db", "path to the sqlite database file")
	flag.Parse()

	log := slog.Default()

	slog.Info("-----------------")
	slog.Info("----quillcored start----")
	slog.Info("-----------------")

	cc, err := corecontext.New(corecontext.Options{
		ConfigPath: *configPath,
		DBPath:     *dbPath,
		Log:        log,
	})
	if err != nil {
		log.Error("quillcored: wiring CoreContext failed", "error", err)
		os.Exit(1)
	}

	// The reindex sweep needs a DocumentSource that can enumerate every
	// document's current full text; only the embedding host application
	// (the editor's workspace/file index) knows that, so this standalone
	// daemon leaves the sweep unstarted. A host starts it by calling
	// cc.StartBackground with its own DocumentSource once one exists.

	slog.Info("-----------------")
	slog.Info("----quillcored wait----")
	slog.Info("-----------------")

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan

	slog.Info("-----------------")
	slog.Info("----quillcored stop----")
	slog.Info("-----------------")

	if err := cc.Close(); err != nil {
		log.Error("quillcored: close failed", "error", err)
		os.Exit(1)
	}
}
