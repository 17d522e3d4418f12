package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/mbpseudo/internal/library"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the albums recorded in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer lib.Close()

			albums, err := lib.Albums(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(albums) == 0 {
				fmt.Fprintln(out, "Library is empty")
				return nil
			}
			fmt.Fprintln(out, renderTable(listHeaders, listRows(albums, time.Now()), listAligns))
			fmt.Fprintf(out, "%s albums, %s tracks\n",
				humanize.Comma(int64(len(albums))), humanize.Comma(int64(totalTracks(albums))))
			return nil
		},
	}
}

var (
	listHeaders = []string{"Album ID", "Album Artist", "Album", "Source", "Tracks", "Length", "Added"}
	listAligns  = []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
)

func listRows(albums []library.AlbumSummary, now time.Time) [][]string {
	rows := make([][]string, 0, len(albums))
	for _, a := range albums {
		albumID := a.MBAlbumID
		if albumID == "" {
			albumID = "-"
		}
		rows = append(rows, []string{
			albumID,
			a.AlbumArtist,
			a.Album,
			a.DataSource,
			humanize.Comma(int64(a.Tracks)),
			formatLength(a.Length),
			humanize.RelTime(a.AddedAt, now, "ago", "from now"),
		})
	}
	return rows
}

func totalTracks(albums []library.AlbumSummary) int {
	n := 0
	for _, a := range albums {
		n += a.Tracks
	}
	return n
}

// formatLength renders a duration as h:mm:ss, or m:ss under an hour.
func formatLength(d time.Duration) string {
	s := int(d.Round(time.Second).Seconds())
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
