// avatar-chat is a terminal client for the avatar pipeline. It discovers
// the WebSocket endpoint through the gateway, keeps a chat session over a
// reconnecting channel, and renders assistant replies with the same
// typewriter pacing the avatar front-end uses.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avarynx/avatarlink/internal/config"
	"github.com/avarynx/avatarlink/internal/log"
	"github.com/avarynx/avatarlink/pkg/auth"
	"github.com/avarynx/avatarlink/pkg/channel"
	"github.com/avarynx/avatarlink/pkg/discovery"
	"github.com/avarynx/avatarlink/pkg/protocol"
	"github.com/avarynx/avatarlink/pkg/session"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	gateway := flag.String("gateway", "http://localhost:7300", "Gateway base URL for endpoint discovery")
	endpoint := flag.String("endpoint", "", "Pipeline WebSocket URL (skips discovery)")
	login := flag.String("login", "", "Account email or username (password from AVATARLINK_PASSWORD)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	if *login != "" {
		if name := signIn(cfg.Auth.APIBase, *login); name != "" {
			cfg.Profile.Name = name
		}
	}

	var resolver channel.Resolver
	if *endpoint != "" {
		resolver = channel.StaticResolver(*endpoint)
	} else {
		resolver = discovery.NewClient(*gateway, cfg.Pipeline.Secure)
	}

	ch := channel.New(resolver,
		channel.WithLogger(logger),
		channel.WithStatusHandler(func(state channel.State) {
			fmt.Printf("\r[%s]\n", state)
		}),
	)

	sess := session.New(ch, session.Config{
		Expert: protocol.Expert{
			Area:  cfg.Expert.Area,
			Voice: cfg.Expert.Voice,
		},
		User: protocol.UserDetails{
			Name:           cfg.Profile.Name,
			Gender:         cfg.Profile.Gender,
			Age:            cfg.Profile.Age,
			Country:        cfg.Profile.Country,
			LanguageInput:  cfg.Profile.LanguageInput,
			LanguageOutput: cfg.Profile.LanguageOutput,
		},
	},
		session.WithLogger(logger),
		session.WithSink(newConsoleSink(os.Stdout)),
		session.WithStatus(func(status string) {
			fmt.Printf("\r-- %s\n", status)
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
		sess.Close()
		ch.Disconnect()
		os.Exit(0)
	}()

	err = ch.Connect(ctx, sess.HandleRaw, func(err error) {
		logger.Warn("channel error", "error", err)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Connected. Type a message and press enter (ctrl-c to quit).")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := sess.Submit(text); err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
		}
	}

	sess.Close()
	ch.Disconnect()
}

// signIn authenticates against the account backend and returns the
// username for the session profile. Failures are non-fatal; the chat
// continues as a guest.
func signIn(apiBase, identifier string) string {
	logger := log.L()

	password := os.Getenv("AVATARLINK_PASSWORD")
	if password == "" {
		logger.Warn("AVATARLINK_PASSWORD not set, continuing as guest")
		return ""
	}

	client, err := auth.NewClient(apiBase)
	if err != nil {
		logger.Warn("auth client unavailable", "error", err)
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	tok, err := client.Login(ctx, identifier, password)
	if err != nil {
		logger.Warn("login failed, continuing as guest", "error", err)
		return ""
	}

	user, err := client.Me(ctx, tok.AccessToken)
	if err != nil {
		logger.Warn("profile lookup failed", "error", err)
		return ""
	}

	fmt.Printf("Signed in as %s\n", user.Username)
	return user.Username
}
