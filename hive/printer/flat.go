package printer

import (
	"fmt"
	"strings"

	"github.com/joshuapare/cehive/hive"
)

// printFlat prints every value under start as "path [TYPE] = data",
// sorted by path. maxDepth 0 means unlimited; depth 1 covers only start's
// own values.
func (p *Printer) printFlat(start hive.KeyID, maxDepth int) error {
	prefix := "/" + strings.Join(p.tree.PathParts(start), "/")
	for _, e := range p.tree.Flatten() {
		if start != hive.RootKey && !strings.HasPrefix(e.Path, prefix+"/") {
			continue
		}
		if maxDepth > 0 && p.relativeDepth(start, e.Key) >= maxDepth {
			continue
		}
		if err := p.writeFlat(e.Path, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) relativeDepth(ancestor, id hive.KeyID) int {
	depth := 0
	for cur := id; cur != ancestor && cur != hive.NoKey; cur = p.tree.Key(cur).Parent {
		depth++
	}
	return depth
}

func (p *Printer) printFlatValue(id hive.ValueID) error {
	v := p.tree.Value(id)
	path := "/" + strings.Join(append(p.tree.PathParts(v.Parent), v.Name), "/")
	return p.writeFlat(path, id)
}

func (p *Printer) writeFlat(path string, id hive.ValueID) error {
	v := p.tree.Value(id)
	var err error
	if p.opts.ShowValueTypes {
		_, err = fmt.Fprintf(p.writer, "%s [%s] = %s\n", path, v.Type, FormatValue(v, p.opts.MaxValueBytes))
	} else {
		_, err = fmt.Fprintf(p.writer, "%s = %s\n", path, FormatValue(v, p.opts.MaxValueBytes))
	}
	return err
}
