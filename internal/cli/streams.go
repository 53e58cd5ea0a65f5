package cli

import (
	"errors"
	"strconv"
	"strings"

	"spacenav/internal/mutate"

	"github.com/spf13/cobra"
)

func newStreamsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "streams",
		Short: "Add or remove camera streams",
	}
	cmd.AddCommand(newStreamsAddCmd(app))
	cmd.AddCommand(newStreamsRmCmd(app))
	return cmd
}

func newStreamsAddCmd(app *App) *cobra.Command {
	var (
		spaceID int
		name    string
	)
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a stream to a space",
		Example: `spacenav streams add --space 2 --name "Lobby Camera 2"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("space") {
				return writeErr(cmd, errors.New("missing --space"))
			}
			name = strings.TrimSpace(name)
			if name == "" {
				return writeErr(cmd, mutate.ErrEmptyName)
			}
			st, err := app.client().AddStream(cmd.Context(), spaceID, name)
			if err != nil {
				return writeErr(cmd, apiErr(err, "space", strconv.Itoa(spaceID)))
			}
			return writeData(cmd, app, map[string]any{
				"id":      st.ID,
				"name":    st.Name,
				"spaceId": spaceID,
			}, "spacenav streams rm "+strconv.Itoa(st.ID))
		},
	}
	cmd.Flags().IntVar(&spaceID, "space", 0, "Owning space id")
	cmd.Flags().StringVar(&name, "name", "", "Stream name")
	return cmd
}

func newStreamsRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <stream-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a stream",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.TrimSpace(args[0])
			id, err := strconv.Atoi(raw)
			if err != nil || mutate.IsTemp(id) {
				return writeErr(cmd, errNotFound("stream", raw))
			}
			if err := app.client().DeleteStream(cmd.Context(), id); err != nil {
				return writeErr(cmd, apiErr(err, "stream", raw))
			}
			return writeData(cmd, app, map[string]any{"id": id, "deleted": true})
		},
	}
}
