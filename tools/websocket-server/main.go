package main

import (
	"net/http"
	"os"
	"strings"

	"github.com/gookit/slog"
	"github.com/spf13/pflag"
	"github.com/suyog1pathak/wsprobe/internal/mockserver"
	"github.com/suyog1pathak/wsprobe/pkg/logger"
)

func main() {
	var (
		addr     = pflag.String("addr", "localhost:7860", "listen address")
		path     = pflag.String("path", "/ws", "websocket path")
		behavior = pflag.String("behavior", string(mockserver.BehaviorAck), "session behavior: "+behaviorList())
		greeting = pflag.String("greeting", "hello", "message sent on connect by the greet behavior")
		code     = pflag.Int("close-code", 1000, "close code for the close-* behaviors")
		reason   = pflag.String("close-reason", "", "close reason for the close-* behaviors")
		status   = pflag.Int("reject-status", http.StatusForbidden, "HTTP status for the reject behavior")
		certFile = pflag.String("tls-cert", "", "serve wss:// with this certificate")
		keyFile  = pflag.String("tls-key", "", "private key for --tls-cert")
		debug    = pflag.Bool("debug", false, "log every received message")
	)
	pflag.Parse()

	logger.InitLogger(sessionLogOptions(*debug))

	srv, err := mockserver.New(mockserver.Config{
		Behavior:     mockserver.Behavior(*behavior),
		Greeting:     *greeting,
		CloseCode:    *code,
		CloseReason:  *reason,
		RejectStatus: *status,
	})
	if err != nil {
		slog.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.Handle(*path, srv)

	scheme := "ws"
	if *certFile != "" {
		scheme = "wss"
	}
	slog.Infof("mock websocket server listening on %s://%s%s (behavior=%s)", scheme, *addr, *path, *behavior)

	if *certFile != "" {
		err = http.ListenAndServeTLS(*addr, *certFile, *keyFile, mux)
	} else {
		err = http.ListenAndServe(*addr, mux)
	}
	slog.Fatal(err)
}

func behaviorList() string {
	names := make([]string, 0, len(mockserver.Behaviors))
	for _, b := range mockserver.Behaviors {
		names = append(names, string(b))
	}
	return strings.Join(names, ", ")
}

// sessionLogOptions keeps the structured per-session log on stderr; stdout
// carries only this tool's own lifecycle lines written with gookit/slog.
func sessionLogOptions(debug bool) logger.Options {
	return logger.Options{Debug: debug, Output: os.Stderr}
}
