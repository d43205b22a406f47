package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	"github.com/ivankudzin/dochub/internal/transport/http/dto"
)

func (a *app) loginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(envPassword)
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("--email and --password (or " + envPassword + ") are required")
			}
			res, err := a.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			a.log.Debug("logged in", zap.Int64("user_id", res.User.ID))
			return a.print(res.User)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account e-mail")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Close the current session and forget the tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.api.Logout(cmd.Context())
		},
	}
}

func (a *app) meCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			me, err := a.api.Me(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(me)
		},
	}
}

func (a *app) documentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"documents"},
		Short:   "Browse and manage documents",
	}

	var categoryID int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List documents visible to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := a.api.Documents(cmd.Context(), categoryID)
			if err != nil {
				return err
			}
			return a.print(docs)
		},
	}
	list.Flags().Int64Var(&categoryID, "category", 0, "only documents of this category")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			doc, err := a.api.Document(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.print(doc)
		},
	}

	var (
		title    string
		category int64
		audience string
	)
	upload := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a PDF document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := parseAudience(audience)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if title == "" {
				title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			doc, err := a.api.CreateDocument(cmd.Context(), dto.DocumentMetadata{
				Title:          title,
				CategoryID:     category,
				AccessibleRole: role,
			}, args[0], f)
			if err != nil {
				return err
			}
			return a.print(doc)
		},
	}
	upload.Flags().StringVar(&title, "title", "", "document title (defaults to the file name)")
	upload.Flags().Int64Var(&category, "category", 0, "category id")
	upload.Flags().StringVar(&audience, "audience", "all", "role the document is addressed to (name or id)")
	_ = upload.MarkFlagRequired("category")

	var output string
	download := &cobra.Command{
		Use:   "download ID",
		Short: "Download the PDF of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("document-%d.pdf", id)
			}
			if output == "-" {
				_, err = a.api.DownloadDocument(cmd.Context(), id, a.stdout)
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			n, err := a.api.DownloadDocument(cmd.Context(), id, f)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				_ = os.Remove(output)
				return err
			}
			a.log.Debug("document saved", zap.String("path", output), zap.Int64("bytes", n))
			return nil
		},
	}
	download.Flags().StringVarP(&output, "output", "o", "", "destination file, - for stdout")

	remove := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.api.DeleteDocument(cmd.Context(), id)
		},
	}

	cmd.AddCommand(list, get, upload, download, remove)
	return cmd
}

func (a *app) categoriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories, err := a.api.Categories(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(categories)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create NAME",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := a.api.CreateCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(category)
		},
	})
	return cmd
}

func (a *app) likeCommand(like bool) *cobra.Command {
	use, short := "unlike ID", "Remove your like from a document"
	if like {
		use, short = "like ID", "Like a document"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			likes := a.api.Unlike
			if like {
				likes = a.api.Like
			}
			count, err := likes(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.print(dto.LikesResponse{DocumentID: id, LikesCount: count})
		},
	}
}

func (a *app) viewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view ID",
		Short: "Mark a document as viewed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.api.MarkViewed(cmd.Context(), id)
		},
	}
}

func (a *app) commentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments ID",
		Short: "List comments of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			comments, err := a.api.Comments(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.print(comments)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add ID TEXT",
		Short: "Comment on a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			comment, err := a.api.AddComment(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			return a.print(comment)
		},
	})
	return cmd
}

func (a *app) rolesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			roles, err := a.api.Roles(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(roles)
		},
	}
}

// parseAudience accepts a role name, a role id, or "all".
func parseAudience(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return int(enums.AudienceAll), nil
	}
	if id, err := parseID(raw); err == nil {
		if id > int64(enums.AudienceAll) {
			return 0, fmt.Errorf("unknown audience %q", raw)
		}
		return int(id), nil
	}
	role, ok := enums.ParseRole(raw)
	if !ok {
		return 0, fmt.Errorf("unknown audience %q", raw)
	}
	return int(role), nil
}
