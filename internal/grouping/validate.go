package grouping

import "fmt"

// Validate checks the structure of the tree: parent links, leaf shape and,
// for every else-connected group, that its predecessor still ends with the
// negated guard and neither sibling tests anything first.
func (g *Group) Validate() error {
	if g.IsLeaf() && len(g.Children) > 0 {
		return fmt.Errorf("leaf %s has children", g.Descriptor.Label())
	}
	if !g.IsLeaf() && g.Parent != nil && len(g.Children) == 0 {
		return fmt.Errorf("group at depth %d has no children", g.Depth())
	}
	for i, c := range g.Children {
		if c.Parent != g {
			return fmt.Errorf("group at depth %d has a wrong parent", c.Depth())
		}
		if c.IsElse() {
			if i == 0 {
				return fmt.Errorf("first group at depth %d is else-connected", c.Depth())
			}
			prev := g.Children[i-1]
			if !elseConnectable(prev, c) || c.ElseGuards[0] != c.Guards[0] || len(c.ElseGuards) != 1 {
				return fmt.Errorf("else guard %s is not the negation of its predecessor's last guard", c.ElseGuards[0])
			}
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
