package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rfidmusic/internal/musiclib"
	"rfidmusic/internal/store"
)

func newMappingsCommand(ctx *commandContext) *cobra.Command {
	mappingsCmd := &cobra.Command{
		Use:   "mappings",
		Short: "Manage RFID-to-album mappings",
	}

	mappingsCmd.AddCommand(newMappingsListCommand(ctx))
	mappingsCmd.AddCommand(newMappingsAssignCommand(ctx))
	mappingsCmd.AddCommand(newMappingsRemoveCommand(ctx))

	return mappingsCmd
}

func newMappingsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List assigned tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			mappings, err := st.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list mappings: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(mappings) == 0 {
				fmt.Fprintln(out, "No mappings assigned yet")
				return nil
			}

			rows := make([][]string, 0, len(mappings))
			for _, m := range mappings {
				lastPlayed := "never"
				if m.LastPlayed != nil {
					lastPlayed = m.LastPlayed.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{m.RFID, m.AlbumTitle, m.Artist, m.MusicDir, lastPlayed})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"RFID", "ALBUM", "ARTIST", "DIRECTORY", "LAST PLAYED"},
				rows,
				nil,
			))
			return nil
		},
	}
}

func newMappingsAssignCommand(ctx *commandContext) *cobra.Command {
	var albumTitle string
	var artist string

	cmd := &cobra.Command{
		Use:   "assign <rfid> <music-dir>",
		Short: "Assign a tag to a music directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rfid := strings.TrimSpace(args[0])
			musicDir := strings.TrimSpace(args[1])
			if rfid == "" || musicDir == "" {
				return errors.New("rfid and music directory are required")
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			assigned, err := st.AssignedDirs(cmd.Context())
			if err != nil {
				return fmt.Errorf("check assignments: %w", err)
			}
			if _, taken := assigned[musicDir]; taken {
				return fmt.Errorf("directory %s is already assigned to another tag", musicDir)
			}

			title := strings.TrimSpace(albumTitle)
			if title == "" {
				title = musiclib.DisplayTitle(filepath.Base(musicDir))
			}
			mapping := &store.Mapping{
				RFID:       rfid,
				MusicDir:   musicDir,
				AlbumTitle: title,
				Artist:     strings.TrimSpace(artist),
			}
			if err := st.Create(cmd.Context(), mapping); err != nil {
				if errors.Is(err, store.ErrDuplicate) {
					return fmt.Errorf("tag %s is already assigned (remove it first)", rfid)
				}
				return fmt.Errorf("assign mapping: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s (%s)\n", rfid, musicDir, title)
			return nil
		},
	}

	cmd.Flags().StringVar(&albumTitle, "album", "", "Album title (derived from the directory name when omitted)")
	cmd.Flags().StringVar(&artist, "artist", "", "Artist name")
	return cmd
}

func newMappingsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <rfid>",
		Short: "Remove a tag assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rfid := strings.TrimSpace(args[0])

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), rfid); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("tag %s is not assigned", rfid)
				}
				return fmt.Errorf("remove mapping: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed mapping for %s\n", rfid)
			return nil
		},
	}
}
