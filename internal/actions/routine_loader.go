package actions

import (
	"fmt"
	"os"
)

// Sequences are the built forms of a scenario
type Sequences struct {
	Startup  *ActionBuilder
	Recovery *ActionBuilder
}

// LoadSequences builds startup and recovery from scenario YAML. An empty
// startup list falls back to DefaultStartup; an empty recovery stays empty.
func LoadSequences(data []byte) (*Sequences, error) {
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	seqs := &Sequences{}
	if len(sc.Startup) == 0 {
		seqs.Startup = DefaultStartup()
	} else if seqs.Startup, err = BuildSequence("startup", sc.Startup); err != nil {
		return nil, err
	}

	if seqs.Recovery, err = BuildSequence("recovery", sc.Recovery); err != nil {
		return nil, err
	}
	return seqs, nil
}

// LoadSequencesFromFile reads a scenario file and builds its sequences
func LoadSequencesFromFile(path string) (*Sequences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	return LoadSequences(data)
}
