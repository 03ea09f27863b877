// Package chatcmder provides the chat command for interactive streaming
// completions against the configured provider.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/relay/pkg/client"
	"github.com/papercomputeco/relay/pkg/cliui"
	"github.com/papercomputeco/relay/pkg/config"
	"github.com/papercomputeco/relay/pkg/dotdir"
	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/provider/openai"
	"github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/utils"
)

const chatLongDesc string = `Start an interactive chat session against the configured provider.

Each turn streams the completion as it decodes: text appears delta by
delta, tool calls print once fully merged, and usage totals print when
the response completes.

The API key is read from the environment variable named by
provider.api_key_env (OPENAI_API_KEY by default).

Examples:
  relay chat --model gpt-4o-mini
  relay chat --base-url http://localhost:11434/v1 --model llama3.2`

const chatShortDesc string = "Interactive streaming chat"

// logFile is the JSON session log written inside the .relay/ directory.
const logFile = "relay.log"

type chatCommander struct {
	baseURL        string
	model          string
	idleTimeoutMs  uint
	capacity       uint
	readBufferSize uint
	apiKey         string
	configDir      string
	debug          bool

	logger *slog.Logger
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.ChatFlags, []string{
				config.FlagBaseURL,
				config.FlagModel,
				config.FlagIdleTimeoutMs,
				config.FlagCapacity,
			})

			cmder.baseURL = v.GetString("provider.base_url")
			cmder.model = v.GetString("provider.model")
			cmder.idleTimeoutMs = v.GetUint("stream.idle_timeout_ms")
			cmder.capacity = v.GetUint("stream.channel_capacity")
			cmder.readBufferSize = v.GetUint("stream.read_buffer_size")
			cmder.apiKey = os.Getenv(v.GetString("provider.api_key_env"))
			cmder.configDir = configDir

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.ChatFlags, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.ChatFlags, config.FlagModel, &cmder.model)
	config.AddUintFlag(cmd, config.ChatFlags, config.FlagIdleTimeoutMs, &cmder.idleTimeoutMs)
	config.AddUintFlag(cmd, config.ChatFlags, config.FlagCapacity, &cmder.capacity)

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	// Pretty logs only when a person is watching.
	pretty := term.IsTerminal(int(os.Stderr.Fd()))
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(pretty),
		logger.WithWriter(os.Stderr),
	)

	// Sessions also log structured JSON into the .relay/ directory, fanned
	// out alongside the stderr handler.
	if target, err := dotdir.NewManager().Target(c.configDir); err == nil {
		f, err := os.OpenFile(filepath.Join(target, logFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err == nil {
			defer f.Close()
			c.logger = logger.Multi(
				c.logger,
				logger.New(
					logger.WithDebug(c.debug),
					logger.WithJSON(true),
					logger.WithWriter(f),
				),
			)
		}
	}

	cl := client.New(c.baseURL, c.apiKey, c.model,
		client.WithLogger(c.logger),
		client.WithStreamOptions(
			openai.WithIdleTimeout(time.Duration(c.idleTimeoutMs)*time.Millisecond),
			openai.WithChannelCapacity(int(c.capacity)),
			openai.WithReadBufferSize(int(c.readBufferSize)),
		),
	)

	fmt.Println()
	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.NameStyle.Render(c.model),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	var messages []llm.Message
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(cliui.UserPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		messages = append(messages, llm.NewTextMessage("user", input))

		reply, err := c.streamTurn(ctx, cl, messages)
		if err != nil {
			return err
		}
		if reply != nil {
			messages = append(messages, *reply)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

// streamTurn streams one completion, printing events as they decode, and
// returns the assistant message to append to the history (nil if the model
// produced no text).
func (c *chatCommander) streamTurn(ctx context.Context, cl *client.Client, messages []llm.Message) (*llm.Message, error) {
	stream, err := cl.StreamCompletion(ctx, messages)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	fmt.Print(cliui.AssistantPrompt)

	var reply *llm.Message
	started := false

	for ev := range stream.Events() {
		switch ev.Type {
		case llm.EventCreated:
			started = true

		case llm.EventServerModel:
			c.logger.Debug("server model", "model", ev.Model)

		case llm.EventOutputTextDelta:
			fmt.Print(ev.Delta)

		case llm.EventOutputItemDone:
			switch ev.Item.Type {
			case llm.OutputItemFunctionCall:
				fmt.Printf("\n  %s %s %s\n",
					cliui.KeyStyle.Render("tool:"),
					cliui.NameStyle.Render(ev.Item.Call.Name),
					cliui.DimStyle.Render(utils.Truncate(ev.Item.Call.Arguments, 120)),
				)
			case llm.OutputItemMessage:
				msg := *ev.Item.Message
				reply = &msg
			}

		case llm.EventCompleted:
			fmt.Println()
			if u := ev.Completed.Usage; u != nil {
				fmt.Printf("  %s %s\n",
					cliui.FormatUsage(u.PromptTokens, u.CompletionTokens, u.TotalTokens),
					cliui.DimStyle.Render("in "+cliui.FormatDuration(time.Since(start))),
				)
			}
			fmt.Println()

		case llm.EventError:
			fmt.Printf("\n  %s %s\n", cliui.FailMark, cliui.DimStyle.Render("stream failed"))
			return nil, fmt.Errorf("streaming completion: %w", ev.Err)
		}
	}

	if !started {
		c.logger.Warn("stream produced no decodable chunks")
	}

	return reply, nil
}
