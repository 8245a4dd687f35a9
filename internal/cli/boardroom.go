package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

// HealthCmd reports server health.
func HealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newClient().Health()
			if err != nil {
				return err
			}
			mark := okMark
			if h.Status != "ok" {
				mark = failMark
			}
			fmt.Printf("%s %s %s (%s)\n", mark, h.Service, h.Version, h.Status)
			fmt.Printf("  agents: %d  clients: %d\n", h.Agents, h.ConnectedClients)
			return nil
		},
	}
}

// AgentsCmd lists the boardroom agents.
func AgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List boardroom agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			agents, err := newClient().Agents()
			if err != nil {
				return err
			}
			for _, a := range agents {
				fmt.Printf("  %-14s %-34s %s\n", accent.Sprint(a.ID), a.Name, dim.Sprint(a.Role))
			}
			return nil
		},
	}
}

// MeetingCmd shows the latest report of a meeting type.
func MeetingCmd() *cobra.Command {
	var (
		run     bool
		asJSON  bool
		listing bool
	)

	cmd := &cobra.Command{
		Use:   "meeting [type]",
		Short: "Show a boardroom meeting report",
		Long: `Show the latest report for a meeting type. Without arguments, lists the meeting types.
Use --run to convene a new meeting instead of reading the cached report.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			if len(args) == 0 || listing {
				types, err := c.MeetingTypes()
				if err != nil {
					return err
				}
				for _, t := range types {
					fmt.Printf("  %-10s %s\n", accent.Sprint(t.ID), t.Description)
				}
				return nil
			}

			var (
				report *models.MeetingReport
				err    error
			)
			if run {
				report, err = c.RunMeeting(args[0])
			} else {
				report, err = c.Meeting(args[0])
			}
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(report)
			}
			printReport(report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&run, "run", false, "Convene a new meeting")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw report")
	cmd.Flags().BoolVar(&listing, "types", false, "List meeting types")
	return cmd
}

var priorityColors = map[models.Priority]*color.Color{
	models.PriorityHigh:   color.New(color.FgRed),
	models.PriorityMedium: color.New(color.FgYellow),
	models.PriorityLow:    color.New(color.FgGreen),
}

func priority(p models.Priority) string {
	if c, ok := priorityColors[p]; ok {
		return c.Sprint(p)
	}
	return string(p)
}

func printReport(r *models.MeetingReport) {
	title := color.New(color.Bold)
	title.Printf("%s meeting", strings.ToUpper(string(r.Type)))
	fmt.Printf("  %s\n\n", dim.Sprint(r.Timestamp.Local().Format(time.RFC1123)))
	fmt.Println(r.Summary)

	if len(r.AgentContributions) > 0 {
		fmt.Println()
		title.Println("Contributions")
		for _, ac := range r.AgentContributions {
			fmt.Printf("  [%s] %s: %s\n", priority(ac.Priority), accent.Sprint(ac.AgentName), ac.Insight)
		}
	}
	if len(r.ActionItems) > 0 {
		fmt.Println()
		title.Println("Action items")
		for _, ai := range r.ActionItems {
			fmt.Printf("  [%s] %s -> %s (%s)\n", priority(ai.Priority), ai.Title, ai.AssignedTo, ai.Status)
		}
	}
	if len(r.Metrics) > 0 {
		fmt.Println()
		title.Println("Metrics")
		for _, m := range r.Metrics {
			fmt.Printf("  %-28s %-12s %+.1f%% %s\n", m.Name, m.Value, m.Change, dim.Sprint(m.Trend))
		}
	}
}

// AskCmd sends a question to the boardroom chat.
func AskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Ask the boardroom a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().Ask(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", accent.Sprint(resp.AgentName), resp.Response)
			return nil
		},
	}
}

// HistoryCmd prints or clears the chat history.
func HistoryCmd() *cobra.Command {
	var clearChat bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the boardroom chat history",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			if clearChat {
				if err := c.ClearChat(); err != nil {
					return err
				}
				fmt.Printf("%s Chat history cleared\n", okMark)
				return nil
			}

			msgs, err := c.ChatHistory()
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				dim.Println("No messages yet")
				return nil
			}
			for _, m := range msgs {
				ts := m.Timestamp.Local().Format("2006-01-02 15:04:05")
				from := "you"
				if m.Role == models.RoleAssistant {
					from = accent.Sprint(m.AgentName)
				}
				fmt.Printf("[%s] %s: %s\n", dim.Sprint(ts), from, m.Content)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearChat, "clear", false, "Delete the chat history")
	return cmd
}

// AuditCmd runs a security audit or lists past audits.
func AuditCmd() *cobra.Command {
	var (
		logs  bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run a security audit",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			if logs {
				entries, err := c.AuditLogs(limit)
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Printf("%s  %s  %s\n", dim.Sprint(e.CreatedAt.Local().Format(time.RFC3339)), severity(e.Severity), e.ID)
				}
				return nil
			}

			dim.Println("Running audit...")
			resp, err := c.RunAudit()
			if err != nil {
				return err
			}
			fmt.Println(resp.Report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&logs, "logs", false, "List stored audit reports")
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of audit reports to list")
	return cmd
}

func severity(s string) string {
	switch s {
	case models.SeverityCritical:
		return color.New(color.FgRed, color.Bold).Sprint(s)
	case models.SeverityWarning:
		return color.New(color.FgYellow).Sprint(s)
	default:
		return s
	}
}
