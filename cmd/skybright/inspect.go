package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/store"
)

func newInspectCmd() *cobra.Command {
	var (
		lookupMJD  float64
		lookupLoc  int
		lookupBand string
	)

	cmd := &cobra.Command{
		Use:   "inspect <artifact>",
		Short: "Print artifact metadata and retained-sample summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := store.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			meta, err := r.Meta()
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(meta))
			for k := range meta {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			fmt.Println("meta:")
			for _, k := range keys {
				fmt.Printf("  %-22s %s\n", k, meta[k])
			}

			mjds, err := r.MJDs()
			if err != nil {
				return err
			}
			fmt.Printf("retained samples: %d\n", len(mjds))

			counts, err := r.BandCounts()
			if err != nil {
				return err
			}
			bands := make([]string, 0, len(counts))
			for b := range counts {
				bands = append(bands, b)
			}
			sort.Strings(bands)
			for _, b := range bands {
				fmt.Printf("  band %s: %d rows\n", b, counts[b])
			}

			if len(mjds) > 0 {
				var maxGap float64
				for i := 1; i < len(mjds); i++ {
					if gap := mjds[i] - mjds[i-1]; gap > maxGap {
						maxGap = gap
					}
				}
				fmt.Printf("mjd range: %.5f .. %.5f\n", mjds[0], mjds[len(mjds)-1])
				fmt.Printf("largest retained gap: %.2f minutes\n", maxGap*24*60)
			}

			if cmd.Flags().Changed("mjd") {
				mag, masked, err := r.Lookup(lookupMJD, lookupLoc, lookupBand)
				if err != nil {
					return err
				}
				fmt.Printf("lookup mjd=%s loc=%d band=%s: mag=%.4f masked=%v\n",
					strconv.FormatFloat(lookupMJD, 'f', 5, 64), lookupLoc, lookupBand, mag, masked)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&lookupMJD, "mjd", 0, "look up one value at this MJD")
	cmd.Flags().IntVar(&lookupLoc, "loc", 0, "location index for --mjd lookup")
	cmd.Flags().StringVar(&lookupBand, "band", "r", "band for --mjd lookup")

	return cmd
}
