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

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/z-advisor/backend/internal/config"
	"github.com/zhouzirui/z-advisor/backend/internal/logging"
	"github.com/zhouzirui/z-advisor/backend/internal/model/profile"
	"github.com/zhouzirui/z-advisor/backend/internal/service/chat"
	"github.com/zhouzirui/z-advisor/backend/internal/service/recommend"
)

func main() {
	profileID := flag.String("profile", profile.DefaultID, "profile to chat as")
	delay := flag.Duration("delay", 1200*time.Millisecond, "simulated advisor thinking time")
	catalogPath := flag.String("catalog", "", "investment catalog CSV (embedded when empty)")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logger := logging.New(config.LogConfig{Level: *logLevel, Format: "text"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *profileID, *delay, *catalogPath, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, profileID string, delay time.Duration, catalogPath string, logger logrus.FieldLogger) error {
	profiles := profile.NewMemoryStore(profile.Seed())
	p, ok := profiles.FindByID(profileID)
	if !ok {
		return fmt.Errorf("unknown profile %q", profileID)
	}

	catalog, err := recommend.LoadFile(catalogPath)
	if err != nil {
		return err
	}

	svc := chat.NewService(
		chat.WithDelay(delay),
		chat.WithProfiles(profiles),
		chat.WithRecommender(catalog),
		chat.WithLogger(logger),
	)
	defer svc.Close()

	d := newDisplay(os.Stdout, p)
	d.print(profileMarkdown(p))

	sessionID, cancel, err := openSession(ctx, svc, p.ID, d)
	if err != nil {
		return err
	}
	defer func() { cancel() }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	var risk string
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			input := strings.TrimSpace(line)
			switch {
			case input == "/exit" || input == "/quit":
				return nil
			case input == "/clear":
				cancel()
				fmt.Print("\033[2J\033[H")
				sessionID, cancel, err = openSession(ctx, svc, p.ID, d)
				if err != nil {
					return err
				}
			case strings.HasPrefix(input, "/risk"):
				risk = strings.TrimSpace(strings.TrimPrefix(input, "/risk"))
				if risk == "" {
					d.print("_Risk profile cleared._")
				} else {
					d.print(fmt.Sprintf("_Risk profile set to %s._", risk))
				}
			default:
				if _, _, err := svc.Submit(ctx, sessionID, chat.Request{Text: input, Risk: risk}); err != nil {
					return err
				}
			}
		}
	}
}

// openSession starts a conversation and renders every message appended to
// it, the greeting included.
func openSession(ctx context.Context, svc *chat.Service, profileID string, d *display) (string, func(), error) {
	session, err := svc.CreateSession(ctx, profileID)
	if err != nil {
		return "", nil, err
	}
	transcript, err := svc.LoadTranscript(ctx, session.ID)
	if err != nil {
		return "", nil, err
	}
	for _, msg := range transcript {
		d.message(msg)
	}

	updates, cancel, err := svc.Subscribe(session.ID)
	if err != nil {
		return "", nil, err
	}
	go func() {
		for msg := range updates {
			d.message(msg)
		}
	}()
	return session.ID, cancel, nil
}
