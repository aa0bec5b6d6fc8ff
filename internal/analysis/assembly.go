package analysis

import (
	"strconv"
	"strings"

	"immunoscope/domain/expression"
)

// MakeUnique renames repeated labels by appending .1, .2, ... to every
// occurrence after the first. Generated names never collide with a label
// already present in the input.
func MakeUnique(labels []string) []string {
	used := make(map[string]bool, len(labels))
	for _, l := range labels {
		used[l] = true
	}

	seen := make(map[string]bool, len(labels))
	counter := make(map[string]int)
	out := make([]string, len(labels))
	for i, l := range labels {
		if !seen[l] {
			seen[l] = true
			out[i] = l
			continue
		}

		n := counter[l]
		var candidate string
		for {
			n++
			candidate = l + "." + strconv.Itoa(n)
			if !used[candidate] {
				break
			}
		}
		counter[l] = n
		used[candidate] = true
		out[i] = candidate
	}
	return out
}

// SymbolLabels picks the row label for each gene: its symbol, or the gene id
// when the symbol is blank or NA. The result is made unique.
func SymbolLabels(genes []expression.GeneAnnotation) []string {
	labels := make([]string, len(genes))
	for i, g := range genes {
		symbol := strings.TrimSpace(g.Symbol)
		if symbol == "" || strings.EqualFold(symbol, "NA") {
			symbol = string(g.GeneID)
		}
		labels[i] = symbol
	}
	return MakeUnique(labels)
}

// AssembleSymbolMatrix validates the container and relabels the count matrix
// rows with unique gene symbols. Column order is unchanged.
func AssembleSymbolMatrix(c *expression.Container) (*expression.Matrix, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c.Counts.WithRowLabels(SymbolLabels(c.Genes))
}
