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

	"github.com/zeusync/tickworld/internal/client"
	"github.com/zeusync/tickworld/internal/core/observability/log"
	"github.com/zeusync/tickworld/internal/injector"
)

// A headless client: every stdin line is sent as chat, except movement commands
// ("/move forward left", "/stop", "/jump").
func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	assets := flag.String("assets", "assets", "directory meshes are resolved against")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := &client.InputState{}
	hud := client.LogHUD{Logger: log.New(log.LevelInfo)}

	c, err := injector.InitializeClient(injector.ConfigPath(*configPath), client.FileMeshLoader{Root: *assets}, input, hud)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating client:", err)
		os.Exit(1)
	}
	if err := c.Connect(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error connecting:", err)
		os.Exit(1)
	}

	go readCommands(ctx, c, input)

	if err := c.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Client stopped:", err)
		os.Exit(1)
	}
}

func readCommands(ctx context.Context, c *client.Client, input *client.InputState) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if err := c.SendChat(ctx, line); err != nil {
				fmt.Fprintln(os.Stderr, "chat:", err)
			}
			continue
		}

		fields := strings.Fields(line)
		var intents client.Intents
		switch fields[0] {
		case "/stop":
		case "/jump":
			intents = input.Intents()
			intents.Jump = true
		case "/move":
			for _, dir := range fields[1:] {
				switch dir {
				case "forward":
					intents.Forward = true
				case "backward":
					intents.Backward = true
				case "left":
					intents.Left = true
				case "right":
					intents.Right = true
				}
			}
		default:
			fmt.Fprintln(os.Stderr, "unknown command:", fields[0])
			continue
		}
		input.Set(intents)
	}
}
