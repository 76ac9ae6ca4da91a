// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package env

// Guard tracks the order of interactions within one invocation: input is
// read first, output is set last.
type Guard struct {
	interacted bool
	returned   bool
}

// Touch records an interaction.
func (g *Guard) Touch() error {
	if g.returned {
		return ErrOutputAlreadySet
	}
	g.interacted = true
	return nil
}

// Input records that the input is read.
func (g *Guard) Input() error {
	if g.returned {
		return ErrOutputAlreadySet
	}
	if g.interacted {
		return ErrInputAlreadyRead
	}
	g.interacted = true
	return nil
}

// Output records that the output is set.
func (g *Guard) Output() error {
	if err := g.Touch(); err != nil {
		return err
	}
	g.returned = true
	return nil
}

func (g *Guard) Returned() bool { return g.returned }

// Reset starts a new invocation.
func (g *Guard) Reset() { *g = Guard{} }
