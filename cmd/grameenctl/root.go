package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"grameen_connect/internal/client"
	"grameen_connect/internal/models"
)

type app struct {
	apiURL      string
	sessionPath string
	lang        string
	asJSON      bool
	verbose     bool
	state       *client.State
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "grameen", "session.json")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "grameenctl",
		Short:         "Command-line client for the Grameen Service Connect API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			c := client.New(a.apiURL, nil)
			c.Language = a.lang
			a.state = client.NewState(c, client.FileSessionStore{Path: a.sessionPath})
			return a.state.Restore()
		},
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api", envOr("GRAMEEN_API", "http://localhost:5000/api"), "API base URL")
	root.PersistentFlags().StringVar(&a.sessionPath, "session", envOr("GRAMEEN_SESSION", defaultSessionPath()), "where the login session is kept")
	root.PersistentFlags().StringVar(&a.lang, "lang", os.Getenv("GRAMEEN_LANG"), "preferred language for server messages (en, bn)")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print raw JSON")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.requestsCmd(),
		a.messagesCmd(),
		a.profileCmd(),
		a.watchCmd(),
	)
	return root
}

func (a *app) print(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printRequests(w io.Writer, list []models.RequestView) error {
	if a.asJSON {
		return a.print(w, list)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCATEGORY\tNAME\tVOLUNTEER\tCREATED")
	for _, r := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Status, r.Category, r.Name, deref(r.VolunteerName), r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}
