package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/llehouerou/mbpseudo/internal/autotag"
	"github.com/llehouerou/mbpseudo/internal/errmsg"
	"github.com/llehouerou/mbpseudo/internal/mbpseudo"
	"github.com/llehouerou/mbpseudo/internal/tags"
)

func newCandidatesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates <dir>...",
		Short: "Show the ranked candidates for album directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matcher, err := ctx.tagger()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			for _, dir := range args {
				items, err := tags.ReadDir(dir)
				if err != nil {
					if len(items) == 0 {
						fmt.Fprintln(out, errmsg.FormatWith(errmsg.OpReadTags, dir, err))
						continue
					}
					ctx.logger.Warn("some files could not be read", "dir", dir, "error", err)
				}
				if len(items) == 0 {
					fmt.Fprintf(out, "%s: no music files\n", dir)
					continue
				}

				artist, album, proposal, err := matcher.TagAlbum(cmd.Context(), items)
				if err != nil {
					if cmd.Context().Err() != nil {
						return err
					}
					fmt.Fprintln(out, errmsg.FormatWith(errmsg.OpTagAlbum, dir, err))
					continue
				}

				fmt.Fprintf(out, "%s\n%s - %s (%d items, recommendation: %s)\n",
					dir, artist, album, len(items), proposal.Recommendation)
				if len(proposal.Candidates) == 0 {
					fmt.Fprintln(out, "No candidates found")
					continue
				}
				fmt.Fprintln(out, renderTable(candidateHeaders, candidateRows(proposal), candidateAligns))
			}
			return nil
		},
	}
}

var (
	candidateHeaders = []string{"#", "Distance", "Source", "Ref", "Album ID", "Artist", "Album", "Status", "Tracks"}
	candidateAligns  = []columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight}
)

func candidateRows(p autotag.Proposal) [][]string {
	rows := make([][]string, 0, len(p.Candidates))
	for i, m := range p.Candidates {
		info := m.Info.AlbumInfo()
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatDistance(m.Distance.Value()),
			info.DataSource,
			refLabel(m.Info),
			info.AlbumID,
			info.Artist,
			info.Album,
			info.Status,
			strconv.Itoa(len(info.Tracks)),
		})
	}
	return rows
}

// refLabel names the release a pseudo-release candidate currently reads from.
func refLabel(c autotag.Candidate) string {
	if p, ok := c.(*mbpseudo.PseudoAlbumInfo); ok {
		return p.ActiveSource().String()
	}
	return "-"
}

func formatDistance(d float64) string {
	return strconv.FormatFloat(d, 'f', 3, 64)
}
