package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"tcp-chat/domain"
	"tcp-chat/internal"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const (
	defaultHost = "localhost"
	defaultPort = 12345
	serverTag   = "[Server]"
)

// Config defines the client-side environment variables.
type Config struct {
	LogLevel    string        `env:"LOG_LEVEL,default=WARN"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT,default=5s"`
	QuitTimeout time.Duration `env:"QUIT_TIMEOUT,default=2s"`
}

var serverStyle = color.New(color.FgCyan, color.OpBold)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run connects to host and port given as arguments, then chats from the terminal.
func run(args []string) (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	host := defaultHost
	if len(args) >= 1 {
		host = args[0]
	}
	var portArgs []string
	if len(args) >= 2 {
		portArgs = args[1:2]
	}
	port, err := internal.ResolvePort(portArgs, defaultPort)
	if err != nil {
		log.Warn("Ignoring port argument", "error", err, "port", port)
	}

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Connect to the chat server.
	address := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", address, config.DialTimeout)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", address, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	if err := chat(ctx, log, conn, os.Stdin, os.Stdout, config.QuitTimeout); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

// chat prints what the server sends while forwarding the user input.
// It returns when the user quits, stdin ends, the server hangs up or ctx is done.
func chat(ctx context.Context, log *slog.Logger, conn net.Conn, stdin io.Reader, stdout io.Writer, quitTimeout time.Duration) error {
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		printServerLines(conn, stdout)
	}()

	input := make(chan string)
	go func() {
		defer close(input)
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			select {
			case input <- scanner.Text():
			case <-serverDone:
				return
			}
		}
	}()

	_, _ = fmt.Fprint(stdout, "Enter username: ")
	username := true
	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			return nil
		case <-serverDone:
			_, _ = fmt.Fprintln(stdout, "Disconnected from chat.")
			return nil
		case line, ok := <-input:
			if !ok {
				_, _ = fmt.Fprintln(stdout, "Disconnected from chat.")
				return nil
			}
			line = strings.TrimSpace(line)

			switch {
			case username:
				username = false
				if line == "" {
					line = domain.DefaultName
				}
			case domain.IsQuit(line):
				if err := send(conn, domain.QuitCommand); err != nil {
					return err
				}
				// Let the goodbye reach the terminal
				select {
				case <-serverDone:
				case <-time.After(quitTimeout):
				}
				_, _ = fmt.Fprintln(stdout, "Disconnected from chat.")
				return nil
			case line == "":
				continue
			}

			if err := send(conn, line); err != nil {
				return err
			}
		}
	}
}

func send(conn net.Conn, line string) error {
	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	return nil
}

func printServerLines(conn net.Conn, stdout io.Writer) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, serverTag) {
			line = serverStyle.Render(line)
		}
		_, _ = fmt.Fprintln(stdout, line)
	}
}
