package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chatrelay/internal/relay"
	"chatrelay/internal/session"
)

func main() {
	var (
		serverURL = flag.String("server", "ws://localhost:8080/ws", "relay websocket URL")
		roomCode  = flag.String("room", "", "room code (required)")
		name      = flag.String("name", "", "display name (required)")
		timeout   = flag.Duration("timeout", 10*time.Second, "dial timeout")
	)
	flag.Parse()

	if strings.TrimSpace(*roomCode) == "" || strings.TrimSpace(*name) == "" {
		fmt.Fprintln(os.Stderr, "--room and --name are required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, *timeout)
	sess, err := session.Dial(dialCtx, *serverURL)
	cancel()
	if err != nil {
		log.Fatalf("dial failed: %v", err)
	}
	defer sess.Close()

	if err := sess.Join(ctx, *roomCode, strings.TrimSpace(*name)); err != nil {
		log.Fatalf("join failed: %v", err)
	}
	fmt.Printf("joined room %s as %s\n", sess.Room(), sess.Name())

	ctx, cancelAll := context.WithCancel(ctx)
	defer cancelAll()

	go func() {
		defer cancelAll()
		err := sess.Listen(ctx, printMessage)
		if err != nil && ctx.Err() == nil {
			log.Printf("connection closed: %v", err)
		}
	}()

	go func() {
		defer cancelAll()
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			if err := sess.Send(ctx, relay.Message{Text: text}); err != nil {
				log.Printf("send failed: %v", err)
				return
			}
		}
	}()

	<-ctx.Done()
}

func printMessage(msg relay.Message) {
	switch {
	case msg.IsSystem():
		fmt.Printf("* %s\n", msg.Text)
	case msg.HasMedia():
		url := msg.Gif
		if url == "" {
			url = msg.Image
		}
		if url == "" {
			url = msg.Video
		}
		fmt.Printf("%s: %s [media: %s]\n", msg.Sender, msg.Text, url)
	default:
		fmt.Printf("%s: %s\n", msg.Sender, msg.Text)
	}
}
