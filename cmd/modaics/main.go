// Command modaics is a small CLI over the Modaics client SDK, useful for
// poking at a backend: health checks, text search, environment selection,
// offline-queue flushing, and watching the realtime channel.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/modaics/modaics-go/internal/auth"
	"github.com/modaics/modaics-go/pkg/modaics"
	"github.com/spf13/cobra"
)

var (
	flagEnv       string
	flagStorePath string
	flagToken     string
	flagVerbose   bool
)

func main() {
	root := &cobra.Command{
		Use:           "modaics",
		Short:         "Modaics marketplace API client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagEnv, "env", "", "environment (development|staging|production)")
	root.PersistentFlags().StringVar(&flagStorePath, "store", defaultStorePath(), "path to the local preference store")
	root.PersistentFlags().StringVar(&flagToken, "token", os.Getenv("MODAICS_TOKEN"), "bearer token")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(healthCmd(), searchCmd(), envCmd(), queueCmd(), watchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "modaics.db"
	}
	return filepath.Join(home, ".modaics", "modaics.db")
}

func newClient() (*modaics.Client, error) {
	opts := &modaics.ClientOptions{
		Environment: modaics.Environment(flagEnv),
		StorePath:   flagStorePath,
	}
	if flagVerbose {
		opts.Logger = stderrLogger{}
	}
	if flagToken != "" {
		opts.Identity = &auth.StaticProvider{TokenValue: flagToken}
	}

	if dir := filepath.Dir(flagStorePath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, err
		}
	}

	c, err := modaics.NewClient(opts)
	if err != nil {
		return nil, err
	}
	if flagToken != "" {
		c.SignIn("cli", "")
	}
	return c, nil
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check backend health",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			status, err := c.Health.Check(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s %s %s\n", status.Status, status.Service, status.Version)
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search items by text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			resp, err := c.Search.ByText(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			for _, r := range resp.Results {
				fmt.Printf("%.3f  %-24s %-16s %8.2f %s\n",
					r.Score, r.Item.Title, r.Item.Brand, r.Item.Price, r.Item.Currency)
			}
			fmt.Printf("%d results in %.1fms\n", resp.TotalCount, resp.QueryTime*1000)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	return cmd
}

func envCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env [name]",
		Short: "Show or set the persisted environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			if len(args) == 0 {
				fmt.Println(c.Environment())
				return nil
			}
			if err := c.SetEnvironment(modaics.Environment(args[0])); err != nil {
				return err
			}
			fmt.Println("environment set to", args[0])
			return nil
		},
	}
	return cmd
}

func queueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Offline submission queue",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List queued submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			pending, err := c.Items.Pending()
			if err != nil {
				return err
			}
			for _, p := range pending {
				fmt.Printf("%s  %-24s %s\n", p.EnqueuedAt.Format(time.RFC3339), p.Title, p.ID)
			}
			fmt.Printf("%d pending\n", len(pending))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Replay queued submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Items.FlushQueue(cmd.Context())
			fmt.Printf("flushed %d\n", n)
			return err
		},
	})

	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream realtime events",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			if c.Realtime == nil {
				return fmt.Errorf("no websocket URL configured")
			}

			events, cancel := c.Realtime.Subscribe()
			defer cancel()

			if err := c.Realtime.Connect(cmd.Context()); err != nil {
				return err
			}
			defer c.Realtime.Disconnect()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

			for {
				select {
				case <-sig:
					return nil
				case ev := <-events:
					switch ev.Kind {
					case modaics.EventMessage:
						fmt.Printf("%s  %s  sketchbook=%s post=%s\n",
							ev.Message.Timestamp, ev.Message.Type,
							ev.Message.Payload.SketchbookID, ev.Message.Payload.PostID)
					case modaics.EventError:
						fmt.Fprintln(os.Stderr, "channel error:", ev.Err)
					case modaics.EventDisconnected:
						return nil
					}
				}
			}
		},
	}
}

// stderrLogger is a minimal Logger over the standard log package.
type stderrLogger struct{}

func (stderrLogger) log(level, msg string, kv []interface{}) {
	log.Printf("[%s] %s %v", level, msg, kv)
}

func (l stderrLogger) Debug(msg string, kv ...interface{}) { l.log("DEBUG", msg, kv) }
func (l stderrLogger) Info(msg string, kv ...interface{})  { l.log("INFO", msg, kv) }
func (l stderrLogger) Warn(msg string, kv ...interface{})  { l.log("WARN", msg, kv) }
func (l stderrLogger) Error(msg string, kv ...interface{}) { l.log("ERROR", msg, kv) }
