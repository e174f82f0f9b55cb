// Package refdata loads the static reference data consumed by the race engine: circuits, tyre
// compounds, teams and drivers. The data ships embedded in the binary and can be replaced by a
// directory holding files of the same names.
package refdata

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
)

const (
	circuitsFile = "circuits.yaml"
	tyresFile    = "tyres.yaml"
	teamsFile    = "teams.yaml"
	driversFile  = "drivers.yaml"
)

var (
	ErrUnknownCircuit = errors.New("unknown circuit")
	ErrUnknownDriver  = errors.New("unknown driver")
)

//go:embed data/*.yaml
var embedded embed.FS

// Catalog holds every piece of reference data. It is immutable once loaded.
type Catalog struct {
	Circuits []domain.Circuit
	Tyres    domain.Tyres
	Teams    domain.Teams
	Drivers  []domain.Driver
}

// Load reads the reference data embedded in the binary.
func Load() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("error opening embedded reference data: %w", err)
	}
	return load(sub)
}

// LoadDir reads the reference data from the given directory.
func LoadDir(dir string) (*Catalog, error) {
	return load(os.DirFS(dir))
}

// Circuit returns the circuit with the given id.
func (c *Catalog) Circuit(id string) (domain.Circuit, error) {
	for _, circuit := range c.Circuits {
		if circuit.ID == id {
			return circuit, nil
		}
	}
	return domain.Circuit{}, fmt.Errorf("%w: %q", ErrUnknownCircuit, id)
}

// Driver returns the driver with the given id.
func (c *Catalog) Driver(id string) (domain.Driver, error) {
	for _, d := range c.Drivers {
		if d.ID == id {
			return d, nil
		}
	}
	return domain.Driver{}, fmt.Errorf("%w: %q", ErrUnknownDriver, id)
}

// WithOverride returns a copy of the circuit with every non-zero field of override applied on
// top of it; zero-valued override fields leave the reference value untouched.
func WithOverride(circuit, override domain.Circuit) (domain.Circuit, error) {
	if err := mergo.Merge(&circuit, override, mergo.WithOverride); err != nil {
		return circuit, fmt.Errorf("error merging circuit override: %w", err)
	}
	return circuit, nil
}

/* Private Helper Functions
------------------------------------------------------------------------------------------------- */

func load(fsys fs.FS) (*Catalog, error) {
	var (
		c     Catalog
		tyres []domain.TyreSpec
		teams []domain.Team
	)

	if err := decode(fsys, circuitsFile, &c.Circuits); err != nil {
		return nil, err
	}
	if err := decode(fsys, tyresFile, &tyres); err != nil {
		return nil, err
	}
	if err := decode(fsys, teamsFile, &teams); err != nil {
		return nil, err
	}
	if err := decode(fsys, driversFile, &c.Drivers); err != nil {
		return nil, err
	}

	c.Tyres = make(domain.Tyres, len(tyres))
	for _, t := range tyres {
		c.Tyres[t.Compound] = t
	}
	c.Teams = make(domain.Teams, len(teams))
	for _, t := range teams {
		c.Teams[t.ID] = t
	}

	return &c, nil
}

func decode(fsys fs.FS, name string, out any) error {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", name, err)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("error parsing %s: %w", name, err)
	}
	return nil
}
