package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tokend/internal/logger"
	"github.com/samcharles93/tokend/internal/tokenization"
)

func tokenizeCmd() *cli.Command {
	var promptName string

	flags := append(commonTokenizerFlags(), loggingFlags()...)
	flags = append(flags, &cli.StringFlag{
		Name:        "prompt",
		Usage:       "prompt name to apply",
		Destination: &promptName,
	})

	return &cli.Command{
		Name:      "tokenize",
		Usage:     "Tokenize a text and print the tokens as JSON",
		ArgsUsage: "<text>",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one text argument")
			}
			cfg := LoadConfig()
			applyConfig(cmd, cfg, nil)
			ctx = logger.WithContext(ctx, setupLogger())

			pool, err := buildPool(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer pool.Close()

			input := tokenization.SingleInput(cmd.Args().First())
			text, enc, err := pool.Tokenize(ctx, input, true, promptName)
			if err != nil {
				return err
			}
			out := json.NewEncoder(os.Stdout)
			out.SetIndent("", "  ")
			return out.Encode(tokenization.IntoTokens(enc, text))
		},
	}
}

func decodeCmd() *cli.Command {
	var keepSpecial bool

	flags := append(commonTokenizerFlags(), loggingFlags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "keep-special",
		Usage:       "keep special tokens in the decoded text",
		Destination: &keepSpecial,
	})

	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode token ids back into text",
		ArgsUsage: "<id> [<id> ...]",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return fmt.Errorf("expected at least one token id")
			}
			ids := make([]uint32, 0, cmd.Args().Len())
			for _, arg := range cmd.Args().Slice() {
				id, err := strconv.ParseUint(arg, 10, 32)
				if err != nil {
					return fmt.Errorf("invalid token id %q: %w", arg, err)
				}
				ids = append(ids, uint32(id))
			}

			cfg := LoadConfig()
			applyConfig(cmd, cfg, nil)
			ctx = logger.WithContext(ctx, setupLogger())

			pool, err := buildPool(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer pool.Close()

			text, err := pool.Decode(ctx, ids, !keepSpecial)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}
