package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelpost/internal/ipc"
	"reelpost/internal/queue"
)

func newPostCommand(ctx *commandContext) *cobra.Command {
	var subtitleURL string

	cmd := &cobra.Command{
		Use:   "post <video-url>",
		Short: "Queue a video URL for captioning and publishing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoURL := args[0]
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if client != nil {
					resp, err := client.Post(videoURL, subtitleURL)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Queued item %d for %s\n", resp.Item.ID, resp.Item.VideoURL)
					return nil
				}

				item, err := store.NewTask(cmd.Context(), videoURL, subtitleURL)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Queued item %d for %s\n", item.ID, item.VideoURL)
				fmt.Fprintln(out, "Daemon is not running; the item will be processed after `reelpost run` starts.")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&subtitleURL, "srt", "", "Subtitle file URL used for caption generation")
	return cmd
}
