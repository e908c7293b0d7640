package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/learnhub/backend/internal/client"
	"github.com/learnhub/backend/internal/config"
	"github.com/learnhub/backend/internal/logger"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// courseAPI is the part of the REST client the editor needs
type courseAPI interface {
	persistence.Backend
	CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (int, error)
}

// deps carries what the commands are built from, so tests can swap the backend and streams
type deps struct {
	in      io.Reader
	out     io.Writer
	connect func() (courseAPI, *zap.Logger, error)
}

func defaultDeps() deps {
	return deps{
		in:  os.Stdin,
		out: os.Stdout,
		connect: func() (courseAPI, *zap.Logger, error) {
			cfg, err := config.LoadEditor()
			if err != nil {
				return nil, nil, err
			}
			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return nil, nil, err
			}
			return client.New(cfg.BackendURL, cfg.Timeout, log), log, nil
		},
	}
}

func newRootCmd(d deps) *cobra.Command {
	root := &cobra.Command{
		Use:          "editor",
		Short:        "Edit the structure of a course",
		Long:         `Editor loads a course from the course structure API, lets you change its units and lessons and saves the result.`,
		SilenceUsage: true,
	}
	root.SetIn(d.in)
	root.SetOut(d.out)
	root.SetErr(d.out)

	root.AddCommand(newCreateCmd(d), newShowCmd(d), newEditCmd(d))
	return root
}

func newCreateCmd(d deps) *cobra.Command {
	var (
		title         string
		description   string
		structureType string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty course",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, log, err := d.connect()
			if err != nil {
				return err
			}
			defer log.Sync()

			id, err := api.CreateCourse(cmd.Context(), &models.CreateCourseRequest{
				Title:         title,
				Description:   description,
				StructureType: models.StructureType(structureType),
			})
			if err != nil {
				return fmt.Errorf("failed to create course: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created course %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "course title")
	cmd.Flags().StringVar(&description, "description", "", "course description")
	cmd.Flags().StringVar(&structureType, "type", string(models.StructureTypeUnified), "structure type: unified or legacy")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newShowCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <courseId>",
		Short: "Print the structure of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseCourseID(args[0])
			if err != nil {
				return err
			}
			api, log, err := d.connect()
			if err != nil {
				return err
			}
			defer log.Sync()

			session := persistence.NewAdapter(courseID, nil, api, nil, nil, log)
			if _, err := session.Load(cmd.Context()); err != nil {
				return err
			}
			printSnapshot(cmd.OutOrStdout(), session.Snapshot())
			return nil
		},
	}
}

func newEditCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <courseId>",
		Short: "Start an interactive editing session",
		Long: `Start an interactive editing session. Commands are read one per line; type "help" for the list.
Field edits of saved items are written at once, everything else is written by "save".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseCourseID(args[0])
			if err != nil {
				return err
			}
			api, log, err := d.connect()
			if err != nil {
				return err
			}
			defer log.Sync()

			sh := newShell(cmd.InOrStdin(), cmd.OutOrStdout())
			sh.session = persistence.NewAdapter(courseID, nil, api, sh, sh, log)
			if _, err := sh.session.Load(cmd.Context()); err != nil {
				return err
			}
			return sh.Run(cmd.Context())
		},
	}
}

func parseCourseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid course id: %q", raw)
	}
	return id, nil
}
