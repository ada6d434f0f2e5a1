package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/XavierCollard23/LONDON/internal/catalog"
	"github.com/XavierCollard23/LONDON/internal/model"
	"github.com/XavierCollard23/LONDON/internal/resolve"
	"github.com/XavierCollard23/LONDON/internal/transit"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate <from> <to>",
	Short: "Estimate the transfer between two known locations",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Default()
		if err != nil {
			return err
		}
		res := resolve.New(cat)
		from, ok := lookup(cat, res, args[0])
		if !ok {
			return fmt.Errorf("no catalog entry matches %q", args[0])
		}
		to, ok := lookup(cat, res, args[1])
		if !ok {
			return fmt.Errorf("no catalog entry matches %q", args[1])
		}
		est := transit.NewEstimator(cat)
		fmt.Printf("%s -> %s: %d min (%.2f km)\n",
			from.Name, to.Name, est.Estimate(from.Name, to.Name), est.DistanceKm(from.Name, to.Name))
		if note, ok := cat.TransferNote(from.Name, to.Name); ok {
			fmt.Println(note)
		}
		return nil
	},
}

// lookup tries the exact catalog name first, then the alias index.
func lookup(cat *catalog.Catalog, res *resolve.Resolver, name string) (model.LocationEntry, bool) {
	if e, ok := cat.Get(strings.TrimSpace(name)); ok {
		return e, true
	}
	if names := res.Locations([]string{name}); len(names) > 0 {
		return cat.Get(names[0])
	}
	return model.LocationEntry{}, false
}

func init() {
	rootCmd.AddCommand(estimateCmd)
}
