// Command sd is a CLI client for the sample dispatch API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/and161185/sample-dispatch/internal/convert"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Each call uses its own viper instance.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "sd",
		Short:         "Sample dispatch field-agent CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("server", "http://localhost:3000", "API base URL")
	root.PersistentFlags().Bool("json", false, "output JSON")
	root.PersistentFlags().Duration("timeout", 30*time.Second, "request timeout")
	_ = v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("json", root.PersistentFlags().Lookup("json"))
	_ = v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))

	root.AddCommand(
		versionCmd(),
		registerCmd(v),
		loginCmd(v),
		todayCmd(v),
		addCmd(v),
		collectCmd(v),
		delayCmd(v),
	)
	return root
}

// withClient runs fn with a client and a request timeout. When auth is set
// the stored session token is attached.
func withClient(cmd *cobra.Command, v *viper.Viper, auth bool, fn func(ctx context.Context, c *Client, tf tokenFile) error) error {
	c := NewClient(v.GetString("server"))
	var tf tokenFile
	if auth {
		var err error
		if tf, err = loadToken(); err != nil {
			return err
		}
		c.BearerToken = tf.AccessToken
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), v.GetDuration("timeout"))
	defer cancel()
	return fn(ctx, c, tf)
}

func printJSON(w io.Writer, val any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(val)
}

func printSample(w io.Writer, v *viper.Viper, s convert.Sample) error {
	if v.GetBool("json") {
		return printJSON(w, s)
	}
	_, err := fmt.Fprintf(w, "%s  %s  %s  %s (v%d)\n", s.ID, s.PatientName, s.Priority, s.Status, s.Version)
	return err
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "sd %s (%s)\n", version, buildDate)
			return err
		},
	}
}

func registerCmd(v *viper.Viper) *cobra.Command {
	var name, phone, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an agent account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, v, false, func(ctx context.Context, c *Client, _ tokenFile) error {
				resp, err := c.Register(ctx, name, phone, password)
				if err != nil {
					return err
				}
				if v.GetBool("json") {
					return printJSON(cmd.OutOrStdout(), resp)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", resp.Agent.Name, resp.Agent.ID)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "agent name")
	cmd.Flags().StringVarP(&phone, "phone", "u", "", "login phone")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func loginCmd(v *viper.Viper) *cobra.Command {
	var phone, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, v, false, func(ctx context.Context, c *Client, _ tokenFile) error {
				resp, err := c.Login(ctx, phone, password)
				if err != nil {
					return err
				}
				if err := saveToken(tokenFile{AccessToken: resp.Token, ExpiresAt: resp.ExpiresAt, AgentID: resp.Agent.ID}); err != nil {
					return fmt.Errorf("save token: %w", err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s until %s\n", resp.Agent.Name, resp.ExpiresAt.Local().Format(time.RFC3339))
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&phone, "phone", "u", "", "login phone")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func todayCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's dispatch list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, v, true, func(ctx context.Context, c *Client, tf tokenFile) error {
				samples, err := c.ListToday(ctx, tf.AgentID)
				if err != nil {
					return err
				}
				if v.GetBool("json") {
					return printJSON(cmd.OutOrStdout(), samples)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"#", "ID", "Patient", "Address", "Priority", "Status", "Notes"})
				for i, s := range samples {
					notes := strings.SplitN(s.Notes, "\n", 2)[0]
					tw.AppendRow(table.Row{i + 1, s.ID, s.PatientName, s.PickupAddress, s.Priority, s.Status, notes})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func addCmd(v *viper.Viper) *cobra.Command {
	var req convert.CreateSampleRequest
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a sample (defaults to yourself and today)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, v, true, func(ctx context.Context, c *Client, tf tokenFile) error {
				in := req
				if in.AgentID == "" {
					in.AgentID = tf.AgentID
				}
				if in.ScheduledDate == "" {
					in.ScheduledDate = time.Now().UTC().Format(convert.DateLayout)
				}
				s, err := c.CreateSample(ctx, in)
				if err != nil {
					return err
				}
				return printSample(cmd.OutOrStdout(), v, s)
			})
		},
	}
	cmd.Flags().StringVar(&req.PatientName, "patient", "", "patient name")
	cmd.Flags().StringVar(&req.PickupAddress, "address", "", "pickup address")
	cmd.Flags().StringVar(&req.ScheduledDate, "date", "", "scheduled date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.Priority, "priority", "", "HIGH, MEDIUM or LOW")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&req.AgentID, "agent", "", "owning agent ID")
	return cmd
}

func collectCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "collect <sample-id>",
		Short: "Mark a sample collected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, v, true, func(ctx context.Context, c *Client, _ tokenFile) error {
				s, err := c.Collect(ctx, args[0])
				if err != nil {
					return err
				}
				return printSample(cmd.OutOrStdout(), v, s)
			})
		},
	}
}

func delayCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "delay <sample-id> <reason...>",
		Short: "Report a delay on a sample",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, v, true, func(ctx context.Context, c *Client, _ tokenFile) error {
				s, err := c.ReportDelay(ctx, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				return printSample(cmd.OutOrStdout(), v, s)
			})
		},
	}
}
