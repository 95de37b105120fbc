// -- cmd/run.go --
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vxkade/uipilot/api/schemas"
	"github.com/vxkade/uipilot/internal/agent"
	"github.com/vxkade/uipilot/internal/browser"
	"github.com/vxkade/uipilot/internal/llmclient"
	"github.com/vxkade/uipilot/internal/observability"
	"github.com/vxkade/uipilot/internal/pixel"
	"github.com/vxkade/uipilot/internal/translator"
)

var (
	runBackend  string
	runURL      string
	runHeadless bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive command session against a UI backend",
	Long: `Starts a session on the chosen backend and reads natural-language
commands from stdin, one per line. Each command becomes exactly one UI
action. Prefix a line with "extract " to query data from the current
screen instead. Type "quit" or "exit" to stop.`,
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVarP(&runBackend, "backend", "b", "dom", "backend to drive: dom or pixel")
	runCmd.Flags().StringVarP(&runURL, "url", "u", "", "initial URL to open")
	runCmd.Flags().BoolVar(&runHeadless, "headless", true, "run the browser headless (dom backend only)")
	rootCmd.AddCommand(runCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := buildBackend(logger)
	if err != nil {
		return err
	}

	client, err := llmclient.NewClient(ctx, appConfig.LLM, logger)
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close LLM client.", zap.Error(err))
		}
	}()

	pilot := agent.NewPilot(backend, translator.New(client, backend.Mode(), appConfig, logger), logger)
	if err := pilot.Setup(ctx, runURL); err != nil {
		return err
	}
	defer pilot.Close(context.Background())

	return commandLoop(ctx, cmd, pilot)
}

// buildBackend constructs the backend selected by --backend.
func buildBackend(logger *zap.Logger) (schemas.Backend, error) {
	switch strings.ToLower(runBackend) {
	case "dom":
		cfg := appConfig.Browser
		cfg.Headless = runHeadless
		return browser.NewSession(cfg, logger), nil
	case "pixel":
		driver, err := pixel.NewRobotDriver()
		if err != nil {
			return nil, fmt.Errorf("initializing screen driver: %w", err)
		}
		return pixel.NewController(driver, pixel.NewTesseractEngine(), appConfig.Pixel, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want dom or pixel)", runBackend)
	}
}

// commandLoop reads commands until quit, EOF or cancellation.
func commandLoop(ctx context.Context, cmd *cobra.Command, pilot *agent.Pilot) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	json := jsoniter.ConfigCompatibleWithStandardLibrary

	fmt.Fprintln(out, "Enter a command (quit/exit to stop, 'extract <query>' for data):")
	fmt.Fprint(out, "> ")

	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "quit" || line == "exit":
			return nil
		case strings.HasPrefix(line, "extract "):
			query := strings.TrimSpace(strings.TrimPrefix(line, "extract "))
			data, err := pilot.Extract(ctx, query)
			if err != nil {
				fmt.Fprintf(out, "extraction failed: %v\n", err)
				break
			}
			encoded, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				fmt.Fprintf(out, "extraction failed: %v\n", err)
				break
			}
			fmt.Fprintln(out, string(encoded))
		default:
			res := pilot.Interact(ctx, line)
			if res.Success {
				if res.URL != "" {
					fmt.Fprintf(out, "ok (%s)\n", res.URL)
				} else {
					fmt.Fprintln(out, "ok")
				}
			} else {
				fmt.Fprintf(out, "failed: %s\n", res.Error)
			}
		}
		fmt.Fprint(out, "> ")
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading commands: %w", err)
	}
	return nil
}
