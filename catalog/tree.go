package catalog

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Tree renders descs grouped under their baselines. Descriptors without a
// base are top-level nodes; each lists the descriptors measured against
// it. Node metadata is the trial count multiplier.
func Tree(descs []Descriptor) string {
	children := make(map[string][]Descriptor)
	for _, d := range descs {
		if d.BaseName != "" {
			children[d.BaseName] = append(children[d.BaseName], d)
		}
	}

	tree := treeprint.NewWithRoot(fmt.Sprintf("%d benchmarks", len(descs)))

	for _, d := range descs {
		if d.BaseName != "" {
			continue
		}

		kids := children[d.Name]
		if len(kids) == 0 {
			tree.AddMetaNode(multiplierMeta(d), d.Name)
			continue
		}

		branch := tree.AddMetaBranch(multiplierMeta(d), d.Name)
		for _, k := range kids {
			branch.AddMetaNode(multiplierMeta(k), k.Name)
		}
	}

	return tree.String()
}

func multiplierMeta(d Descriptor) string {
	return fmt.Sprintf("x%.3f", d.CountMultiplier)
}
