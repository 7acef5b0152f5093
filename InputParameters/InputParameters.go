package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type SolverParameters struct {
	Title          string  `yaml:"Title"`
	Subdomains     int     `yaml:"Subdomains"`
	ElementsPerSub int     `yaml:"ElementsPerSub"`
	Tolerance      float64 `yaml:"Tolerance"`
	MaxIterations  int     `yaml:"MaxIterations"`
	Scaling        string  `yaml:"Scaling"` // multiplicity, deluxe or none
	Verbose        bool    `yaml:"Verbose"`
}

func (sp *SolverParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, sp); err != nil {
		return err
	}
	return sp.Validate()
}

func (sp *SolverParameters) Validate() error {
	if sp.Subdomains < 2 {
		return fmt.Errorf("Subdomains must be at least 2, got %d", sp.Subdomains)
	}
	if sp.ElementsPerSub < 1 {
		return fmt.Errorf("ElementsPerSub must be at least 1, got %d", sp.ElementsPerSub)
	}
	if sp.Tolerance <= 0 {
		return fmt.Errorf("Tolerance must be positive, got %v", sp.Tolerance)
	}
	if sp.MaxIterations < 0 {
		return fmt.Errorf("MaxIterations must not be negative, got %d", sp.MaxIterations)
	}
	switch sp.Scaling {
	case "multiplicity", "deluxe", "none":
	default:
		return fmt.Errorf("unknown Scaling %q, want multiplicity, deluxe or none", sp.Scaling)
	}
	return nil
}

func (sp *SolverParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sp.Title)
	fmt.Printf("[%d]\t\t\t= Subdomains\n", sp.Subdomains)
	fmt.Printf("[%d]\t\t\t= ElementsPerSub\n", sp.ElementsPerSub)
	fmt.Printf("%8.2e\t\t= Tolerance\n", sp.Tolerance)
	fmt.Printf("[%d]\t\t\t= MaxIterations\n", sp.MaxIterations)
	fmt.Printf("[%s]\t\t= Scaling\n", sp.Scaling)
	fmt.Printf("[%v]\t\t= Verbose\n", sp.Verbose)
}
