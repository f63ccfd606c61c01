package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"grameen_connect/internal/client"
	"grameen_connect/internal/models"
)

func (a *app) registerCmd() *cobra.Command {
	var in client.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.state.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s) as %s\n", u.FullName, u.Email, u.Role)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.FullName, "name", "", "full name")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.Password, "password", "", "password")
	f.StringVar(&in.Role, "role", string(models.RoleHelpSeeker), "help_seeker, volunteer or admin")
	f.StringVar(&in.Phone, "phone", "", "phone number")
	f.StringVar(&in.Location, "location", "", "village, district")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.state.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", u.FullName, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session and revoke the token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.state.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user as the server sees it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, ok := a.state.Session()
			if !ok {
				return client.ErrNotSignedIn
			}
			u, err := a.state.Client().Profile(cmd.Context(), sess.Token)
			if err != nil {
				return err
			}
			if err := a.state.SetUser(*u); err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), u)
		},
	}
}

func (a *app) requestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"req"},
		Short:   "Browse and manage service requests",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reqs, err := a.state.Requests(cmd.Context(), models.RequestStatus(status))
			if err != nil {
				return err
			}
			return a.printRequests(cmd.OutOrStdout(), reqs)
		},
	}
	list.Flags().StringVar(&status, "status", "", "pending, in_progress, completed or cancelled")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := a.state.Client().GetRequest(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), r)
		},
	}

	mine := &cobra.Command{
		Use:   "mine",
		Short: "Requests you submitted, or that are assigned to you as a volunteer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reqs, err := a.state.MyRequests(cmd.Context())
			if err != nil {
				return err
			}
			return a.printRequests(cmd.OutOrStdout(), reqs)
		},
	}

	var in client.NewRequest
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new service request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.state.CreateRequest(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request #%d submitted (%s)\n", r.ID, r.Status)
			return nil
		},
	}
	sf := submit.Flags()
	sf.StringVar(&in.Name, "name", "", "your name")
	sf.StringVar(&in.Contact, "contact", "", "phone or email to reach you")
	sf.StringVar(&in.Category, "category", "", "job, banking, government, healthcare, ...")
	sf.StringVar(&in.Description, "description", "", "what you need help with")
	sf.StringVar(&in.Location, "location", "", "village, district")
	sf.StringVar(&in.DocumentPath, "document", "", "path to a jpeg or png to attach")
	_ = submit.MarkFlagRequired("name")
	_ = submit.MarkFlagRequired("category")
	_ = submit.MarkFlagRequired("description")

	var volunteerID uint
	setStatus := &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Change a request's status (volunteers and admins)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st := models.RequestStatus(args[1])
			if !st.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			r, err := a.state.UpdateStatus(cmd.Context(), id, st, volunteerID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request #%d is now %s\n", r.ID, r.Status)
			return nil
		},
	}
	setStatus.Flags().UintVar(&volunteerID, "volunteer", 0, "assign this volunteer id")

	cmd.AddCommand(list, show, mine, submit, setStatus)
	return cmd
}

func (a *app) messagesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "messages", Short: "Contact messages"}

	var in client.MessageRequest
	send := &cobra.Command{
		Use:   "send",
		Short: "Send a contact message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.state.Client().SendMessage(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Message #%d sent\n", m.ID)
			return nil
		},
	}
	f := send.Flags()
	f.StringVar(&in.Name, "name", "", "your name")
	f.StringVar(&in.Email, "email", "", "your email")
	f.StringVar(&in.Subject, "subject", "", "subject")
	f.StringVar(&in.Message, "message", "", "message body")

	list := &cobra.Command{
		Use:   "list",
		Short: "Read the inbox (volunteers and admins)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, ok := a.state.Session()
			if !ok {
				return client.ErrNotSignedIn
			}
			msgs, err := a.state.Client().Messages(cmd.Context(), sess.Token)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), msgs)
		},
	}
	cmd.AddCommand(send, list)
	return cmd
}

func (a *app) profileCmd() *cobra.Command {
	var fullName, phone, location, bio, avatar string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := client.ProfileUpdate{AvatarPath: avatar}
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.FullName = &fullName
			}
			if flags.Changed("phone") {
				in.Phone = &phone
			}
			if flags.Changed("location") {
				in.Location = &location
			}
			if flags.Changed("bio") {
				in.Bio = &bio
			}
			u, err := a.state.UpdateProfile(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), u)
		},
	}
	f := cmd.Flags()
	f.StringVar(&fullName, "name", "", "full name")
	f.StringVar(&phone, "phone", "", "phone number (empty clears)")
	f.StringVar(&location, "location", "", "location (empty clears)")
	f.StringVar(&bio, "bio", "", "short bio (empty clears)")
	f.StringVar(&avatar, "avatar", "", "path to an image to use as avatar")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream request changes as they happen",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()
			out := cmd.OutOrStdout()
			err := a.state.Watch(ctx, func(e models.RequestEvent) {
				if a.asJSON {
					_ = a.print(out, e)
					return
				}
				fmt.Fprintf(out, "%s #%d %s [%s] %s\n", e.Type, e.Request.ID, e.Request.Category, e.Request.Status, e.Request.Name)
			})
			if errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		},
	}
}
