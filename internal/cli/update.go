package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kyleliao/agent-recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Partially update an observation",
		Long:  "Apply the given fields to an observation. Omitted flags are left untouched.",
		Args:  cobra.ExactArgs(1),
		Run:   runUpdate,
	}

	cmd.Flags().String("content", "", "Replacement content")
	cmd.Flags().String("type", "", "Replacement observation type")
	cmd.Flags().String("title", "", "Replacement title")
	cmd.Flags().String("subtitle", "", "Replacement subtitle")
	cmd.Flags().StringSlice("facts", nil, "Replacement facts")
	cmd.Flags().StringSlice("concepts", nil, "Replacement concepts")
	cmd.Flags().String("category", "", "Replacement category")
	cmd.Flags().Float64P("importance", "i", 0, "Replacement importance")
	cmd.Flags().StringSliceP("tags", "t", nil, "Replacement tags")

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	var p store.UpdateParams

	strFlag := func(name string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetString(name)
		return &v
	}
	p.Content = strFlag("content")
	p.Type = strFlag("type")
	p.Title = strFlag("title")
	p.Subtitle = strFlag("subtitle")
	p.Category = strFlag("category")
	if cmd.Flags().Changed("importance") {
		v, _ := cmd.Flags().GetFloat64("importance")
		p.Importance = &v
	}
	if cmd.Flags().Changed("facts") {
		p.Facts, _ = cmd.Flags().GetStringSlice("facts")
	}
	if cmd.Flags().Changed("concepts") {
		p.Concepts, _ = cmd.Flags().GetStringSlice("concepts")
	}
	if cmd.Flags().Changed("tags") {
		p.Tags, _ = cmd.Flags().GetStringSlice("tags")
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mem, err := s.Update(cmd.Context(), args[0], p)
	if err != nil {
		exitErr("update", err)
	}
	if mem == nil {
		fmt.Fprintf(os.Stderr, "not found: %s\n", args[0])
		os.Exit(1)
	}

	printJSON(mem)
}
