// Command ringnode starts one peer of the ring overlay: a solitary node
// if invoked with a single address, or a node that joins an existing
// ring if invoked with a bootstrap address as well.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/ringoverlay/ringchat/internal/display"
	"github.com/ringoverlay/ringchat/internal/logging"
	"github.com/ringoverlay/ringchat/internal/ring"
	"github.com/ringoverlay/ringchat/internal/server"
	"github.com/ringoverlay/ringchat/internal/transport"
	"github.com/ringoverlay/ringchat/internal/types"
)

var (
	app          = kingpin.New("ringnode", "A peer in a unidirectional ring chat overlay.")
	settleFlag   = app.Flag("settle", "election settling delay before entering the Chang-Roberts state machine").Default("2s").Duration()
	debugFlag    = app.Flag("debug", "enable debug-level logging").Bool()
	selfArg      = app.Arg("self", "this node's own ip:port").Required().String()
	bootstrapArg = app.Arg("bootstrap", "an existing ring member's ip:port to join against").String()
)

func parseAddress(raw string) (types.Identity, error) {
	host, portStr, err := net.SplitHostPort(raw)
	if err != nil {
		return types.Identity{}, fmt.Errorf("%q is not host:port", raw)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return types.Identity{}, fmt.Errorf("%q has an invalid port", raw)
	}
	if !types.ValidateIPv4(host) {
		return types.Identity{}, fmt.Errorf("%q is not a valid IPv4 address", host)
	}
	return types.Identity{Host: host, Port: uint16(port)}, nil
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	self, err := parseAddress(*selfArg)
	if err != nil {
		app.Fatalf("%v", err)
	}

	var bootstrap *types.Identity
	if *bootstrapArg != "" {
		id, err := parseAddress(*bootstrapArg)
		if err != nil {
			app.Fatalf("%v", err)
		}
		bootstrap = &id
	}

	log := logging.NewStdLogger(fmt.Sprintf("[%s]", self))
	log.ToggleDebug(*debugFlag)
	printer := display.NewStdoutPrinter()
	httpTransport := transport.NewHTTPTransport()
	configuration := types.DefaultConfiguration(self)
	configuration.ElectionSettleDelay = *settleFlag

	node := ring.NewNode(configuration, bootstrap, httpTransport, log, printer)
	srv := server.New(node, httpTransport, log)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", self.Port),
		Handler: srv.Engine(),
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server stopped: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if bootstrap != nil {
		if err := node.Start(ctx); err != nil {
			log.Warnf("initial join attempt failed, will remain unjoined: %v", err)
		}
	}

	go runInputLoop(node, log)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Infof("shutting down")
	node.QuitRing(ctx)
	node.Stop()
	_ = httpServer.Close()
}

// runInputLoop is the local input source: every typed line becomes a
// message-origination task.
func runInputLoop(node *ring.Node, log logging.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			continue
		}
		node.Enqueue(types.NewInitMessageTask(text))
	}
	if err := scanner.Err(); err != nil {
		log.Warnf("stdin input loop stopped: %v", err)
	}
}
