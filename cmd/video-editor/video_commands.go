package main

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ritchie-gr8/video-editor/internal/api"
	"github.com/ritchie-gr8/video-editor/internal/config"
	"github.com/ritchie-gr8/video-editor/internal/ipc"
	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
	"github.com/ritchie-gr8/video-editor/internal/store"
	"github.com/ritchie-gr8/video-editor/internal/textutil"
	"github.com/ritchie-gr8/video-editor/internal/video"
)

func newResizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resize <videoId> <WxH>",
		Short: "Queue a resize for a stored video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			videoID := strings.TrimSpace(args[0])
			width, height, err := video.ParseDimensionsKey(args[1])
			if err != nil {
				return err
			}

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			err = store.Mutate(cmd.Context(), st, func(s store.Store) error {
				rec, ok := s.FindVideo(videoID)
				if !ok {
					return fmt.Errorf("%w: %s", store.ErrNotFound, videoID)
				}
				rec.MarkResizing(width, height)
				return nil
			})
			if err != nil {
				return err
			}

			job := jobqueue.NewResize(videoID, width, height)
			job.RequestID = uuid.NewString()
			out := cmd.OutOrStdout()
			err = ctx.withClient(func(client *ipc.Client) error {
				_, err := client.Submit(ipc.NewResizeMessage(job))
				return err
			})
			if err != nil {
				fmt.Fprintf(out, "Marked %s %s as processing; the primary is not reachable (%v)\n", videoID, job.Key(), err)
				fmt.Fprintln(out, "The resize will run when the primary next starts.")
				return nil
			}
			fmt.Fprintf(out, "Queued %s %s (request %s)\n", videoID, job.Key(), job.RequestID)
			return nil
		},
	}
}

func newVideosCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var userID string

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List stored videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			records, err := listVideos(cmd.Context(), cfg, strings.TrimSpace(userID))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, api.FromRecords(records))
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No videos in %s\n", cfg.StorePath())
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.VideoID,
					textutil.DisplayName(rec.Name),
					rec.Extension,
					video.DimensionsKey(rec.Dimensions.Width, rec.Dimensions.Height),
					yesNo(rec.ExtractedAudio),
					formatResizes(rec.Resizes),
					rec.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"ID", "Title", "Ext", "Size", "Audio", "Resizes", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print videos as JSON")
	cmd.Flags().StringVar(&userID, "user", "", "Only list videos owned by this user id")
	return cmd
}

// listVideos returns the stored records newest first.
func listVideos(ctx context.Context, cfg *config.Config, userID string) ([]*video.Record, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	all, err := store.Snapshot(ctx, st)
	if err != nil {
		return nil, err
	}
	out := make([]*video.Record, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if userID != "" && all[i].UserID != userID {
			continue
		}
		out = append(out, all[i])
	}
	return out, nil
}

// formatResizes lists keys ordered by area; "*" marks an output still processing.
func formatResizes(resizes map[string]video.ResizeState) string {
	if len(resizes) == 0 {
		return "-"
	}
	type entry struct {
		key  string
		area int
	}
	entries := make([]entry, 0, len(resizes))
	for key := range resizes {
		w, h, err := video.ParseDimensionsKey(key)
		if err != nil {
			w, h = 0, 0
		}
		entries = append(entries, entry{key: key, area: w * h})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(a.area, b.area); c != 0 {
			return c
		}
		return strings.Compare(a.key, b.key)
	})
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		label := e.key
		if resizes[e.key].Processing {
			label += "*"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}
