// Command pulse talks to a running GymMate backend from the terminal.
//
//	pulse [flags] chat
//	pulse [flags] analyze <image> [prompt...]
//	pulse [flags] scan <image>
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/term"

	"gymmate-backend/internal/client"
	"gymmate-backend/internal/logger"
	"gymmate-backend/internal/models"
)

func main() {
	server := flag.String("server", envOr("GYMMATE_URL", "http://localhost:8080"), "GymMate backend base URL")
	token := flag.String("token", os.Getenv("GYMMATE_TOKEN"), "bearer token (optional)")
	timeout := flag.Duration("timeout", client.DefaultTimeout, "per-request timeout")
	verbose := flag.Bool("v", false, "log client warnings")
	flag.Usage = usage
	flag.Parse()

	level := "error"
	if *verbose {
		level = "debug"
	}
	slog.SetDefault(logger.New(os.Stderr, level, !term.IsTerminal(int(os.Stderr.Fd()))))

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(*server, client.WithTimeout(*timeout), client.WithToken(*token))
	out := newRenderer(os.Stdout)

	var err error
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "chat":
		err = runChat(ctx, c, os.Stdin, out)
	case "analyze":
		err = runAnalyze(ctx, c, args, out)
	case "scan":
		err = runScan(ctx, c, args, out)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "pulse:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: pulse [flags] <command>

Commands:
  chat                      interactive conversation with Pulse
  analyze <image> [prompt]  fitness/nutrition insights for a photo
  scan <image>              nutrition estimate for a meal photo

Flags:
`)
	flag.PrintDefaults()
}

func runChat(ctx context.Context, c *client.Client, in io.Reader, out *renderer) error {
	var conversation []models.ChatMessage
	sc := bufio.NewScanner(in)

	out.Prompt()
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			out.Prompt()
			continue
		case "/exit", "/quit":
			return nil
		case "/clear":
			conversation = nil
			out.Println("(conversation cleared)")
			out.Prompt()
			continue
		}

		conversation = append(conversation, models.ChatMessage{Role: models.RoleUser, Content: line})

		var reply strings.Builder
		started := time.Now()
		res := c.ChatStream(ctx, conversation, func(chunk string) {
			reply.WriteString(chunk)
			out.Stream(chunk)
		})
		out.EndStream()
		slog.Debug("pulse reply", "outcome", res.Outcome, "chunks", res.Chunks, "took", time.Since(started))

		if res.Outcome == client.Failed || strings.TrimSpace(reply.String()) == "" {
			// Drop the unanswered turn so the next try resends a clean conversation.
			conversation = conversation[:len(conversation)-1]
		} else {
			conversation = append(conversation, models.ChatMessage{Role: models.RoleAssistant, Content: reply.String()})
		}

		if ctx.Err() != nil {
			return nil
		}
		out.Prompt()
	}
	return sc.Err()
}

func runAnalyze(ctx context.Context, c *client.Client, args []string, out *renderer) error {
	if len(args) < 1 {
		return errors.New("analyze needs an image path")
	}
	image, err := client.ReadImageFile(args[0])
	if err != nil {
		return err
	}

	out.Markdown(c.AnalyzeImage(ctx, image, strings.Join(args[1:], " ")))
	return nil
}

func runScan(ctx context.Context, c *client.Client, args []string, out *renderer) error {
	if len(args) != 1 {
		return errors.New("scan needs exactly one image path")
	}
	image, err := client.ReadImageFile(args[0])
	if err != nil {
		return err
	}

	rec, err := c.ScanFood(ctx, image)
	if err != nil {
		return err
	}
	out.Markdown(nutritionTable(rec))
	return nil
}

func nutritionTable(rec *models.NutritionRecord) string {
	return fmt.Sprintf(`## %s

| | |
|---|---:|
| Calories | %.0f kcal |
| Protein | %.1f g |
| Carbs | %.1f g |
| Fats | %.1f g |
`, rec.FoodName, rec.Calories, rec.Protein, rec.Carbs, rec.Fats)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
