package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/XavierCollard23/LONDON/internal/catalog"
)

var categoryFlag string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the known locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Default()
		if err != nil {
			return err
		}
		n := 0
		for _, e := range cat.Entries() {
			if categoryFlag != "" && !strings.EqualFold(string(e.Category), categoryFlag) {
				continue
			}
			fmt.Printf("%-32s %-12s %3d min  (%.4f, %.4f)\n",
				e.Name, e.Category, e.DefaultDuration, e.Lat, e.Lon)
			n++
		}
		fmt.Printf("%d location(s)\n", n)
		return nil
	},
}

func init() {
	catalogCmd.Flags().StringVarP(&categoryFlag, "category", "c", "", "Only show one category")
	rootCmd.AddCommand(catalogCmd)
}
