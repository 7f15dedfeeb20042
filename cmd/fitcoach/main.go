// fitcoach runs one inference operation from the command line.
//
// Usage:
//
//	fitcoach -op plan -input "build muscle, 4 days a week"
//	fitcoach -op ask -input "how much protein after a workout?"
//	fitcoach -op nutrition -input "two eggs and a bowl of oatmeal"
//	fitcoach -op lookup -input "barbell squat"
//	fitcoach -op quick -input "motivate me"
//	fitcoach -op chat -input "plan my leg day"
//	fitcoach -op transcribe -file note.ogg -mime audio/ogg
//	fitcoach -op food -file lunch.jpg -mime image/jpeg
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/DandaAkhilReddy/ReddyFitV2/coach"
	"github.com/DandaAkhilReddy/ReddyFitV2/config"
	"github.com/DandaAkhilReddy/ReddyFitV2/llm"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		op         = flag.String("op", "", "operation: plan, ask, nutrition, lookup, quick, chat, transcribe, food")
		input      = flag.String("input", "", "text input for the operation")
		filePath   = flag.String("file", "", "media file for transcribe/food")
		mimeType   = flag.String("mime", "", "MIME type of -file")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Log)
	defer logger.Sync()

	c := coach.NewFromConfig(cfg, logger)
	ctx := context.Background()

	if err := run(ctx, c, *op, *input, *filePath, *mimeType); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", *op, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *coach.Coach, op, input, filePath, mimeType string) error {
	switch op {
	case "plan":
		plan, err := c.GenerateWorkoutPlan(ctx, input, func(failed, max int) {
			fmt.Fprintf(os.Stderr, "attempt %d/%d failed, retrying...\n", failed, max)
		})
		if err != nil {
			return err
		}
		return printJSON(plan)

	case "ask":
		answer, err := c.AskGrounded(ctx, input)
		if err != nil {
			return err
		}
		fmt.Println(answer.Text)
		for _, cite := range answer.Citations {
			fmt.Printf("  source: %s\n", cite.URI)
		}
		return nil

	case "nutrition":
		info, err := c.AnalyzeNutrition(ctx, input)
		if err != nil {
			return err
		}
		return printJSON(info)

	case "lookup":
		url := c.FindExerciseVideo(ctx, input)
		if url == "" {
			fmt.Println("no video found")
			return nil
		}
		fmt.Println(url)
		return nil

	case "quick":
		fmt.Println(c.QuickReply(ctx, input))
		return nil

	case "chat":
		session := c.StartChat(nil)
		stream, err := session.Send(ctx, input)
		if err != nil {
			return err
		}
		for chunk := range stream {
			if chunk.Err != nil {
				return chunk.Err
			}
			fmt.Print(chunk.Text)
		}
		fmt.Println()
		return nil

	case "transcribe":
		blob, err := readBlob(filePath, mimeType)
		if err != nil {
			return err
		}
		text, err := c.TranscribeAudio(ctx, *blob)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil

	case "food":
		blob, err := readBlob(filePath, mimeType)
		if err != nil {
			return err
		}
		items, err := c.RecognizeFood(ctx, *blob)
		if err != nil {
			return err
		}
		return printJSON(items)

	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

func readBlob(path, mimeType string) (*llm.Blob, error) {
	if path == "" || mimeType == "" {
		return nil, fmt.Errorf("-file and -mime are required for this operation")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &llm.Blob{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
