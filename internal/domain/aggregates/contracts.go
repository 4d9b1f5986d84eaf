package aggregates

// Contract names an aggregate and the tables it is the only writer of.
// Other packages may read those tables through repos but never write them.
type Contract struct {
	Name  string
	Root  string
	Owned []string
}

// Owns reports whether table is the root or one of the owned tables.
func (c Contract) Owns(table string) bool {
	if table == c.Root {
		return true
	}
	for _, t := range c.Owned {
		if t == table {
			return true
		}
	}
	return false
}

type Aggregate interface {
	Contract() Contract
}
