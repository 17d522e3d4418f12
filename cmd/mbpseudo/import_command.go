package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/llehouerou/mbpseudo/internal/errmsg"
	"github.com/llehouerou/mbpseudo/internal/importer"
	"github.com/llehouerou/mbpseudo/internal/tags"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var choiceFlags []string
	var defaultFlag string

	cmd := &cobra.Command{
		Use:   "import <path>...",
		Short: "Tag album directories and record them in the library",
		Long: "Each directory below the given paths that contains music files is tagged and recorded.\n" +
			"Choices (apply, skip, asis or a candidate number) answer the directories in order;\n" +
			"the remaining ones use the default choice.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			choices, err := parseChoices(choiceFlags)
			if err != nil {
				return err
			}
			def, err := importer.ParseChoice(defaultFlag)
			if err != nil {
				return fmt.Errorf("default choice: %w", err)
			}

			dirs, err := albumDirs(args)
			if err != nil {
				return err
			}
			if len(dirs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No music files found")
				return nil
			}

			matcher, err := ctx.tagger()
			if err != nil {
				return err
			}
			lib, err := ctx.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer lib.Close()

			session := importer.NewSession(matcher, lib, tags.ReadDir, ctx.logger)
			session.DefaultChoice = def
			for _, c := range choices {
				session.AddChoice(c)
			}

			results, runErr := session.Run(cmd.Context(), dirs)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(importHeaders, importRows(results), importAligns))
			if runErr != nil {
				return runErr
			}
			for _, r := range results {
				if r.Err != nil {
					return fmt.Errorf("%d of %d directories failed", countFailed(results), len(results))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&choiceFlags, "choice", nil, "Choice for each directory, in order")
	cmd.Flags().StringVar(&defaultFlag, "default", "apply", "Choice once --choice values are exhausted")

	return cmd
}

func parseChoices(values []string) ([]importer.Choice, error) {
	choices := make([]importer.Choice, 0, len(values))
	for _, v := range values {
		c, err := importer.ParseChoice(v)
		if err != nil {
			return nil, err
		}
		choices = append(choices, c)
	}
	return choices, nil
}

func albumDirs(paths []string) ([]string, error) {
	var dirs []string
	for _, p := range paths {
		found, err := tags.AlbumDirs(p)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, found...)
	}
	return dirs, nil
}

var (
	importHeaders = []string{"Directory", "Items", "Choice", "Album ID", "Album", "Source", "Result"}
	importAligns  = []columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
)

func importRows(results []importer.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		albumID, album, source := "", r.Album, ""
		if r.Applied != nil {
			info := r.Applied.Info.AlbumInfo()
			albumID, album, source = info.AlbumID, info.Album, info.DataSource
		}
		status := "ok"
		if r.Err != nil {
			status = errmsg.Format(errmsg.OpImportDir, r.Err)
		}
		rows = append(rows, []string{
			r.Dir,
			strconv.Itoa(r.Items),
			r.Choice.String(),
			albumID,
			album,
			source,
			status,
		})
	}
	return rows
}

func countFailed(results []importer.Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
